package screen

import (
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Walk visits root and its descendants depth-first in document order.
// The path slice holds the ancestors of the visited node, closest last; it must not be retained.
// Returning false stops the walk.
func Walk(root *domain.ScreenNode, visit func(node *domain.ScreenNode, path []*domain.ScreenNode) bool) {
	var path []*domain.ScreenNode
	var walk func(n *domain.ScreenNode) bool
	walk = func(n *domain.ScreenNode) bool {
		if n == nil {
			return true
		}
		if !visit(n, path) {
			return false
		}
		path = append(path, n)
		for _, c := range n.Children {
			if !walk(c) {
				return false
			}
		}
		path = path[:len(path)-1]
		return true
	}
	walk(root)
}

// Find returns the first node in document order that satisfies pred.
func Find(root *domain.ScreenNode, pred func(*domain.ScreenNode) bool) *domain.ScreenNode {
	var found *domain.ScreenNode
	Walk(root, func(n *domain.ScreenNode, _ []*domain.ScreenNode) bool {
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Text concatenates the text and accessible labels of the subtree.
func Text(root *domain.ScreenNode) string {
	var b strings.Builder
	Walk(root, func(n *domain.ScreenNode, _ []*domain.ScreenNode) bool {
		for _, s := range []string{n.Text, n.AccessibleLabel} {
			if s != "" {
				b.WriteString(s)
				b.WriteByte('\n')
			}
		}
		return true
	})
	return b.String()
}

// ContainsAny reports whether the subtree's text or labels contain any of the phrases.
// Matching is literal and case-sensitive.
func ContainsAny(root *domain.ScreenNode, phrases []string) bool {
	if root == nil || len(phrases) == 0 {
		return false
	}
	text := Text(root)
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}
