// Package screen locates the nodes the step executor acts on.
//
// Every function is pure: it reads a snapshot and never mutates it. Resolution
// strategies are ordered and the first match wins, so tie-breaks are part of the
// contract rather than an accident of traversal.
package screen
