package trigger

import (
	"fmt"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Compose builds the trigger message body for a request, the inverse of Interpret.
// A send-money request without a phone composes the short "SM|amount" form.
func Compose(req domain.TransactionRequest) (string, error) {
	t := func(s string) string { return strings.TrimSpace(s) }
	amount := t(req.Amount)

	var fields []string
	switch req.Mode {
	case domain.ModeSendMoney:
		if phone := t(req.Phone); phone != "" {
			fields = []string{TagSendMoney, phone, amount}
		} else {
			fields = []string{TagSendMoney, amount}
		}
	case domain.ModeTill:
		fields = []string{TagTill, t(req.Till), amount}
	case domain.ModePaybill:
		fields = []string{TagPaybill, t(req.Business), amount, t(req.Account)}
	case domain.ModeWithdraw:
		fields = []string{TagWithdraw, t(req.Agent), amount, t(req.Store)}
	default:
		return "", fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidRequest, req.Mode)
	}

	for _, f := range fields[1:] {
		if f == "" {
			return "", fmt.Errorf("%w: %s message has a blank field", domain.ErrInvalidRequest, req.Mode)
		}
		if strings.Contains(f, "|") {
			return "", fmt.Errorf("%w: field %q contains the separator", domain.ErrInvalidRequest, f)
		}
	}
	return strings.Join(fields, "|"), nil
}
