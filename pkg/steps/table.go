// Package steps holds the static per-mode step chains driven by the executor.
package steps

import (
	"fmt"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Hint keywords used to disambiguate editable fields.
var (
	PhoneKeywords    = []string{"phone", "number"}
	AmountKeywords   = []string{"amount"}
	TillKeywords     = []string{"till", "goods"}
	BusinessKeywords = []string{"business", "paybill"}
	AccountKeywords  = []string{"account"}
	AgentKeywords    = []string{"agent"}
	StoreKeywords    = []string{"store"}
	AuthKeywords     = []string{"pin", "mpesa", "enter"}
)

// ConfirmDigit is sent at the confirmation step.
const ConfirmDigit = "1"

func digit(id domain.StepID, d string, next domain.StepID) domain.StepDefinition {
	return domain.StepDefinition{ID: id, Action: domain.ActionSendDigit, Digit: d, Next: next}
}

func fill(id domain.StepID, f domain.Field, keywords []string, next domain.StepID) domain.StepDefinition {
	return domain.StepDefinition{ID: id, Action: domain.ActionFillField, Field: f, Keywords: keywords, Next: next}
}

func auth(id domain.StepID) domain.StepDefinition {
	return domain.StepDefinition{
		ID:       id,
		Action:   domain.ActionFinishWithAuth,
		Field:    domain.FieldAuthCode,
		Keywords: AuthKeywords,
		Next:     domain.StepConfirm,
	}
}

// Confirm is the shared confirmation step that follows authentication when requested.
var Confirm = domain.StepDefinition{
	ID:     domain.StepConfirm,
	Action: domain.ActionConfirm,
	Digit:  ConfirmDigit,
	Next:   domain.StepDone,
}

var table = map[domain.Mode][]domain.StepDefinition{
	domain.ModeSendMoney: {
		digit(domain.StepSendMenu, "1", domain.StepSendSubmenu),
		digit(domain.StepSendSubmenu, "1", domain.StepSendPhone),
		fill(domain.StepSendPhone, domain.FieldPhone, PhoneKeywords, domain.StepSendAmount),
		fill(domain.StepSendAmount, domain.FieldAmount, AmountKeywords, domain.StepSendAuth),
		auth(domain.StepSendAuth),
	},
	domain.ModeTill: {
		digit(domain.StepTillMenu, "6", domain.StepTillSubmenu),
		digit(domain.StepTillSubmenu, "2", domain.StepTillNumber),
		fill(domain.StepTillNumber, domain.FieldTill, TillKeywords, domain.StepTillAmount),
		fill(domain.StepTillAmount, domain.FieldAmount, AmountKeywords, domain.StepTillAuth),
		auth(domain.StepTillAuth),
	},
	domain.ModePaybill: {
		digit(domain.StepPayMenu, "6", domain.StepPaySubmenu),
		digit(domain.StepPaySubmenu, "1", domain.StepPayBusiness),
		fill(domain.StepPayBusiness, domain.FieldBusiness, BusinessKeywords, domain.StepPayAccount),
		fill(domain.StepPayAccount, domain.FieldAccount, AccountKeywords, domain.StepPayAmount),
		fill(domain.StepPayAmount, domain.FieldAmount, AmountKeywords, domain.StepPayAuth),
		auth(domain.StepPayAuth),
	},
	domain.ModeWithdraw: {
		digit(domain.StepDrawMenu, "2", domain.StepDrawSubmenu),
		digit(domain.StepDrawSubmenu, "1", domain.StepDrawAgent),
		fill(domain.StepDrawAgent, domain.FieldAgent, AgentKeywords, domain.StepDrawStore),
		fill(domain.StepDrawStore, domain.FieldStore, StoreKeywords, domain.StepDrawAmount),
		fill(domain.StepDrawAmount, domain.FieldAmount, AmountKeywords, domain.StepDrawAuth),
		auth(domain.StepDrawAuth),
	},
}

// Chain returns a copy of the mode's step chain, excluding the shared confirmation step.
func Chain(mode domain.Mode) []domain.StepDefinition {
	return append([]domain.StepDefinition(nil), table[mode]...)
}

// First returns the entry step of a mode, or StepNone for an unknown mode.
func First(mode domain.Mode) domain.StepID {
	chain := table[mode]
	if len(chain) == 0 {
		return domain.StepNone
	}
	return chain[0].ID
}

// Lookup returns the definition of id within mode. The confirmation step is shared by every mode.
func Lookup(mode domain.Mode, id domain.StepID) (domain.StepDefinition, bool) {
	if id == domain.StepConfirm {
		if _, ok := table[mode]; ok {
			return Confirm, true
		}
		return domain.StepDefinition{}, false
	}
	for _, def := range table[mode] {
		if def.ID == id {
			return def, true
		}
	}
	return domain.StepDefinition{}, false
}

// Markdown renders the chains as a document for terminals and tool clients.
func Markdown() string {
	var b strings.Builder
	b.WriteString("# Step chains\n")
	for _, mode := range domain.Modes {
		fmt.Fprintf(&b, "\n## %s\n\n", mode)
		b.WriteString("| Step | Action | Value | Hints | Next |\n|---|---|---|---|---|\n")
		for _, def := range append(Chain(mode), Confirm) {
			value := def.Digit
			if def.Field != "" {
				value = "`" + string(def.Field) + "`"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				def.ID, def.Action, value, strings.Join(def.Keywords, ", "), def.Next)
		}
	}
	return b.String()
}
