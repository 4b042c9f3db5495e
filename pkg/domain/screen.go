package domain

// ScreenNode is one element of an externally rendered element tree.
type ScreenNode struct {
	Text            string        `json:"text,omitempty"`
	AccessibleLabel string        `json:"label,omitempty"`
	Hint            string        `json:"hint,omitempty"`
	Kind            string        `json:"kind,omitempty"`
	OwnerID         string        `json:"owner,omitempty"`
	IsEditable      bool          `json:"editable,omitempty"`
	IsFocusable     bool          `json:"focusable,omitempty"`
	IsClickable     bool          `json:"clickable,omitempty"`
	IsFocused       bool          `json:"focused,omitempty"`
	Children        []*ScreenNode `json:"children,omitempty"`
}

// Snapshot is a point-in-time read of every window the adapter can see.
// Windows are listed in presentation order, the most recent last.
type Snapshot struct {
	Windows []*ScreenNode `json:"windows"`
}
