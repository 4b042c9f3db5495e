package simulator

import "github.com/aretw0/ussdpilot/pkg/domain"

// render draws the current page. Caller holds mu.
func (s *Simulator) render() *domain.ScreenNode {
	if s.page == PageResult {
		return s.renderResult()
	}
	page := s.pages[s.page]
	if page.ID == PageConfirm {
		cp := *page
		cp.Text = confirmText(s.values)
		return s.renderPage(&cp, roleNone)
	}
	return s.renderPage(page, roleNone)
}

// renderPage draws an input dialog. A non-zero override tags every
// interactive node with that role instead of the live ones.
func (s *Simulator) renderPage(page *Page, override role) *domain.ScreenNode {
	input := &domain.ScreenNode{
		Kind:        "android.widget.EditText",
		OwnerID:     DialerOwnerID,
		Hint:        page.Hint,
		Text:        s.input,
		IsEditable:  true,
		IsFocusable: true,
		IsFocused:   true,
	}
	cancel := button("CANCEL")
	send := button("SEND")

	s.tag(input, roleInput, override)
	s.tag(cancel, roleCancel, override)
	s.tag(send, roleSend, override)

	return dialog(
		&domain.ScreenNode{Kind: "android.widget.TextView", OwnerID: DialerOwnerID, Text: page.Text},
		input,
		&domain.ScreenNode{Kind: "android.widget.LinearLayout", OwnerID: DialerOwnerID, Children: []*domain.ScreenNode{cancel, send}},
	)
}

func (s *Simulator) renderResult() *domain.ScreenNode {
	ok := button("OK")
	s.roles[ok] = roleOK
	return dialog(
		&domain.ScreenNode{Kind: "android.widget.TextView", OwnerID: DialerOwnerID, Text: s.result},
		ok,
	)
}

func (s *Simulator) renderDistractor() *domain.ScreenNode {
	field := &domain.ScreenNode{
		Kind:        "android.widget.EditText",
		OwnerID:     s.distractor,
		Hint:        "Enter M-PESA PIN",
		IsEditable:  true,
		IsFocusable: true,
	}
	send := &domain.ScreenNode{Kind: "android.widget.Button", OwnerID: s.distractor, Text: "SEND", IsClickable: true}
	s.roles[field] = roleDistractor
	s.roles[send] = roleDistractor
	return &domain.ScreenNode{
		Kind:    "android.widget.FrameLayout",
		OwnerID: s.distractor,
		Children: []*domain.ScreenNode{
			{Kind: "android.widget.TextView", OwnerID: s.distractor, Text: "Send Money"},
			field,
			send,
		},
	}
}

func (s *Simulator) tag(n *domain.ScreenNode, live, override role) {
	if override != roleNone {
		s.roles[n] = override
		return
	}
	s.roles[n] = live
}

func button(label string) *domain.ScreenNode {
	return &domain.ScreenNode{Kind: "android.widget.Button", OwnerID: DialerOwnerID, Text: label, IsClickable: true, IsFocusable: true}
}

func dialog(children ...*domain.ScreenNode) *domain.ScreenNode {
	return &domain.ScreenNode{Kind: "android.app.AlertDialog", OwnerID: DialerOwnerID, Children: children}
}
