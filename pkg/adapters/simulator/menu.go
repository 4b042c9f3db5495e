package simulator

import "fmt"

// Page ids of the scripted menu.
const (
	PageMain        = "main"
	PageSendMenu    = "send_menu"
	PageSendPhone   = "send_phone"
	PageSendAmount  = "send_amount"
	PageDrawMenu    = "withdraw_menu"
	PageDrawAgent   = "withdraw_agent"
	PageDrawStore   = "withdraw_store"
	PageDrawAmount  = "withdraw_amount"
	PageLipaMenu    = "lipa_menu"
	PagePayBusiness = "paybill_business"
	PagePayAccount  = "paybill_account"
	PagePayAmount   = "paybill_amount"
	PageTillNumber  = "till_number"
	PageTillAmount  = "till_amount"
	PagePIN         = "pin"
	PageConfirm     = "confirm"
	PageResult      = "result"
)

// anyInput keys the transition taken for free-form input pages.
const anyInput = "*"

// Page is one screen of the scripted menu. Pages with a Field capture free-form
// input under that name; the others are numbered menus.
type Page struct {
	ID    string
	Text  string
	Hint  string
	Field string
	Next  map[string]string
}

func menu(id, text string, next map[string]string) *Page {
	return &Page{ID: id, Text: text, Next: next}
}

func prompt(id, text, field, next string) *Page {
	return &Page{ID: id, Text: text, Field: field, Next: map[string]string{anyInput: next}}
}

// DefaultPages returns the stock menu tree: the digits match the mobile-money
// operator menu the step table is written against.
func DefaultPages() map[string]*Page {
	pages := []*Page{
		menu(PageMain, "M-PESA\n1. Send Money\n2. Withdraw Cash\n3. Buy Airtime\n4. Loans and Savings\n5. My Account\n6. Lipa na M-PESA",
			map[string]string{"1": PageSendMenu, "2": PageDrawMenu, "6": PageLipaMenu}),

		menu(PageSendMenu, "Send Money\n1. Send Money\n2. Send to Many\n3. Global", map[string]string{"1": PageSendPhone}),
		prompt(PageSendPhone, "Enter phone no.", "phone", PageSendAmount),
		prompt(PageSendAmount, "Enter amount", "amount", PagePIN),

		menu(PageDrawMenu, "Withdraw Cash\n1. From Agent\n2. From ATM", map[string]string{"1": PageDrawAgent}),
		prompt(PageDrawAgent, "Enter agent no.", "agent", PageDrawStore),
		prompt(PageDrawStore, "Enter store no.", "store", PageDrawAmount),
		prompt(PageDrawAmount, "Enter amount", "amount", PagePIN),

		menu(PageLipaMenu, "Lipa na M-PESA\n1. Pay Bill\n2. Buy Goods and Services", map[string]string{"1": PagePayBusiness, "2": PageTillNumber}),
		prompt(PagePayBusiness, "Enter business no.", "business", PagePayAccount),
		prompt(PagePayAccount, "Enter account no.", "account", PagePayAmount),
		prompt(PagePayAmount, "Enter amount", "amount", PagePIN),
		prompt(PageTillNumber, "Enter till no.", "till", PageTillAmount),
		prompt(PageTillAmount, "Enter amount", "amount", PagePIN),

		{ID: PagePIN, Text: "Enter M-PESA PIN", Hint: "Enter M-PESA PIN", Field: "pin", Next: map[string]string{anyInput: PageConfirm}},
		menu(PageConfirm, "", map[string]string{"1": PageResult, "2": PageResult}),
	}

	out := make(map[string]*Page, len(pages))
	for _, p := range pages {
		out[p.ID] = p
	}
	return out
}

// recipient describes who the collected values pay.
func recipient(v map[string]string) string {
	switch {
	case v["phone"] != "":
		return v["phone"]
	case v["till"] != "":
		return "till " + v["till"]
	case v["business"] != "":
		return fmt.Sprintf("paybill %s account %s", v["business"], v["account"])
	case v["agent"] != "":
		return fmt.Sprintf("agent %s store %s", v["agent"], v["store"])
	}
	return "unknown"
}

func confirmText(v map[string]string) string {
	return fmt.Sprintf("Pay Ksh%s to %s?\n1. Confirm\n2. Cancel", v["amount"], recipient(v))
}

func successText(v map[string]string) string {
	return fmt.Sprintf("Confirmed. Ksh%s paid to %s.", v["amount"], recipient(v))
}
