package domain

import (
	"fmt"
	"strings"
)

// Mode identifies the kind of transaction the menu session performs.
type Mode string

const (
	ModeSendMoney Mode = "SEND_MONEY"
	ModeTill      Mode = "TILL"
	ModePaybill   Mode = "PAYBILL"
	ModeWithdraw  Mode = "WITHDRAW"
)

// Modes lists every supported mode in a stable order.
var Modes = []Mode{ModeSendMoney, ModeTill, ModePaybill, ModeWithdraw}

// ParseMode resolves a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, s)
}

// Field names a TransactionRequest value that a step can read.
type Field string

const (
	FieldAmount   Field = "amount"
	FieldPhone    Field = "phone"
	FieldTill     Field = "till"
	FieldBusiness Field = "business"
	FieldAccount  Field = "account"
	FieldAgent    Field = "agent"
	FieldStore    Field = "store"
	FieldAuthCode Field = "authCode"
)

// RequiredFields returns the request fields a mode cannot run without.
// The auth code is required by every mode and is not listed.
func (m Mode) RequiredFields() []Field {
	switch m {
	case ModeSendMoney:
		return []Field{FieldPhone, FieldAmount}
	case ModeTill:
		return []Field{FieldTill, FieldAmount}
	case ModePaybill:
		return []Field{FieldBusiness, FieldAccount, FieldAmount}
	case ModeWithdraw:
		return []Field{FieldAgent, FieldStore, FieldAmount}
	}
	return nil
}

// TransactionRequest is the typed request produced by the trigger interpreter
// (or submitted manually). It is treated as immutable once created.
type TransactionRequest struct {
	Mode             Mode   `json:"mode"`
	Amount           string `json:"amount"`
	Phone            string `json:"phone,omitempty"`
	Till             string `json:"till,omitempty"`
	Business         string `json:"business,omitempty"`
	Account          string `json:"account,omitempty"`
	Agent            string `json:"agent,omitempty"`
	Store            string `json:"store,omitempty"`
	AuthCode         string `json:"authCode,omitempty"`
	ConfirmAfterAuth bool   `json:"confirmAfterAuth"`
}

// Value returns the request value stored under the given field name.
func (r TransactionRequest) Value(f Field) string {
	switch f {
	case FieldAmount:
		return r.Amount
	case FieldPhone:
		return r.Phone
	case FieldTill:
		return r.Till
	case FieldBusiness:
		return r.Business
	case FieldAccount:
		return r.Account
	case FieldAgent:
		return r.Agent
	case FieldStore:
		return r.Store
	case FieldAuthCode:
		return r.AuthCode
	}
	return ""
}

// Validate checks that the request carries exactly what its mode needs.
func (r TransactionRequest) Validate() error {
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	for _, f := range r.Mode.RequiredFields() {
		if strings.TrimSpace(r.Value(f)) == "" {
			return fmt.Errorf("%w: %s requires %s", ErrInvalidRequest, r.Mode, f)
		}
	}
	if strings.TrimSpace(r.AuthCode) == "" {
		return fmt.Errorf("%w: auth code is blank", ErrInvalidRequest)
	}
	return nil
}

// Redacted returns a copy safe to log or serve: the auth code is masked.
func (r TransactionRequest) Redacted() TransactionRequest {
	if r.AuthCode != "" {
		r.AuthCode = RedactedValue
	}
	return r
}

// RedactedValue replaces secrets wherever they would otherwise be exposed.
const RedactedValue = "***"
