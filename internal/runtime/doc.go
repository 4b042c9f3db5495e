// Package runtime hosts the step executor and the single-threaded loop that feeds it.
//
// Snapshot notifications and timer expiries are the only two event sources. Both are
// funnelled through Loop so no two evaluations ever run concurrently.
package runtime
