package screen

import (
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Matcher decides which window of a snapshot belongs to the menu session
// and which node inside it to act on.
type Matcher struct {
	// OwnerID is the automation's own surface; its windows are never eligible.
	OwnerID string
	// Markers identify an interactive menu context.
	Markers []string
	// ActionLabels are tried in order when resolving the submit button.
	ActionLabels []string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithOwnerID sets the surface the matcher must never act on.
func WithOwnerID(id string) Option {
	return func(m *Matcher) { m.OwnerID = id }
}

// WithMarkers replaces the menu marker vocabulary.
func WithMarkers(markers ...string) Option {
	return func(m *Matcher) {
		if len(markers) > 0 {
			m.Markers = markers
		}
	}
}

// WithActionLabels replaces the ordered submit label list.
func WithActionLabels(labels ...string) Option {
	return func(m *Matcher) {
		if len(labels) > 0 {
			m.ActionLabels = labels
		}
	}
}

// NewMatcher returns a Matcher with the default vocabulary.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		OwnerID:      domain.DefaultOwnerID,
		Markers:      domain.DefaultMarkers,
		ActionLabels: domain.DefaultActionLabels,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Eligible reports whether a window may be automated: it is not ours and it
// shows at least one menu marker.
func (m *Matcher) Eligible(root *domain.ScreenNode) bool {
	if root == nil {
		return false
	}
	if m.OwnerID != "" && root.OwnerID == m.OwnerID {
		return false
	}
	return ContainsAny(root, m.Markers)
}

// SessionRoot returns the eligible window of the snapshot, or nil.
// When several are eligible the last one wins, as later windows are presented on top.
func (m *Matcher) SessionRoot(snap *domain.Snapshot) *domain.ScreenNode {
	if snap == nil {
		return nil
	}
	var root *domain.ScreenNode
	for _, w := range snap.Windows {
		if m.Eligible(w) {
			root = w
		}
	}
	return root
}

// ActionTarget resolves the submit button using the matcher's label list.
func (m *Matcher) ActionTarget(root *domain.ScreenNode) *domain.ScreenNode {
	return ActionTarget(root, m.ActionLabels)
}

// EditableTarget resolves where plain input goes:
//  1. the focused editable node
//  2. the first editable node
//  3. a focusable node whose kind is a text field
//  4. a focusable node whose kind mentions editing
func EditableTarget(root *domain.ScreenNode) *domain.ScreenNode {
	strategies := []func(*domain.ScreenNode) bool{
		func(n *domain.ScreenNode) bool { return n.IsEditable && n.IsFocused },
		func(n *domain.ScreenNode) bool { return n.IsEditable },
		func(n *domain.ScreenNode) bool {
			return n.IsFocusable && (strings.Contains(n.Kind, "EditText") || n.IsEditable)
		},
		func(n *domain.ScreenNode) bool {
			return n.IsFocusable && strings.Contains(strings.ToLower(n.Kind), "edit")
		},
	}
	for _, pred := range strategies {
		if n := Find(root, pred); n != nil {
			return n
		}
	}
	return nil
}

// HintedField returns the first editable node whose hint or label mentions
// any keyword, case-insensitively.
func HintedField(root *domain.ScreenNode, keywords []string) *domain.ScreenNode {
	if len(keywords) == 0 {
		return nil
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			lowered = append(lowered, strings.ToLower(k))
		}
	}
	return Find(root, func(n *domain.ScreenNode) bool {
		if !n.IsEditable {
			return false
		}
		hint := strings.ToLower(n.Hint)
		label := strings.ToLower(n.AccessibleLabel)
		for _, k := range lowered {
			if strings.Contains(hint, k) || strings.Contains(label, k) {
				return true
			}
		}
		return false
	})
}

// ActionTarget finds the first label with a matching node and returns the
// closest node on its ancestor chain that accepts activation.
func ActionTarget(root *domain.ScreenNode, labels []string) *domain.ScreenNode {
	for _, label := range labels {
		if label == "" {
			continue
		}
		node, path := locate(root, func(n *domain.ScreenNode) bool {
			return n.Text == label || n.AccessibleLabel == label
		})
		if node == nil {
			continue
		}
		return clickable(node, path)
	}
	return nil
}

// MatchesDigit reports whether a node is the menu entry for digit.
// "1" also matches numbered entries such as "1. Send Money" or "1 Send Money".
func MatchesDigit(n *domain.ScreenNode, digit string) bool {
	for _, s := range []string{n.Text, n.AccessibleLabel} {
		s = strings.TrimSpace(s)
		if s == digit {
			return true
		}
		if digit == "1" && (strings.HasPrefix(s, "1.") || strings.HasPrefix(s, "1 ")) {
			return true
		}
	}
	return false
}

// DigitTarget returns the activatable node for a menu digit, walking up from the
// labelled node to the first clickable ancestor.
func DigitTarget(root *domain.ScreenNode, digit string) *domain.ScreenNode {
	if digit == "" {
		return nil
	}
	node, path := locate(root, func(n *domain.ScreenNode) bool { return MatchesDigit(n, digit) })
	if node == nil {
		return nil
	}
	return clickable(node, path)
}

func locate(root *domain.ScreenNode, pred func(*domain.ScreenNode) bool) (*domain.ScreenNode, []*domain.ScreenNode) {
	var (
		found *domain.ScreenNode
		chain []*domain.ScreenNode
	)
	Walk(root, func(n *domain.ScreenNode, path []*domain.ScreenNode) bool {
		if pred(n) {
			found = n
			chain = append([]*domain.ScreenNode(nil), path...)
			return false
		}
		return true
	})
	return found, chain
}

func clickable(node *domain.ScreenNode, ancestors []*domain.ScreenNode) *domain.ScreenNode {
	if node.IsClickable {
		return node
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		if ancestors[i].IsClickable {
			return ancestors[i]
		}
	}
	return nil
}
