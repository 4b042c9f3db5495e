package trigger_test

import (
	"errors"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policy() domain.Policy {
	return domain.Policy{
		Enabled:        true,
		AllowedSenders: []string{"+254798765432", " ", "0711000111"},
		AuthCode:       " 1234 ",
	}
}

func reason(t *testing.T, err error) trigger.Reason {
	t.Helper()
	var rej *trigger.RejectError
	require.True(t, errors.As(err, &rej), "expected RejectError, got %v", err)
	return rej.Reason
}

func TestInterpret_Paybill(t *testing.T) {
	req, err := trigger.Interpret(policy(), trigger.Message{
		Sender: "0798765432",
		Body:   "PB|888880|1500|ACC-77",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ModePaybill, req.Mode)
	assert.Equal(t, "888880", req.Business)
	assert.Equal(t, "1500", req.Amount)
	assert.Equal(t, "ACC-77", req.Account)
	assert.Equal(t, "1234", req.AuthCode)
}

func TestInterpret_SendMoneyShortFormUsesSender(t *testing.T) {
	req, err := trigger.Interpret(policy(), trigger.Message{Sender: "+254798765432", Body: "SM|500"})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeSendMoney, req.Mode)
	assert.Equal(t, "0798765432", req.Phone)
	assert.Equal(t, "500", req.Amount)
}

func TestInterpret_SendMoneyLongForm(t *testing.T) {
	req, err := trigger.Interpret(policy(), trigger.Message{Sender: "0711000111", Body: " sm | 0722333444 | 250 "})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeSendMoney, req.Mode)
	assert.Equal(t, "0722333444", req.Phone)
	assert.Equal(t, "250", req.Amount)
}

func TestInterpret_TillAndWithdraw(t *testing.T) {
	till, err := trigger.Interpret(policy(), trigger.Message{Sender: "0798765432", Body: "BG|5544|90"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeTill, till.Mode)
	assert.Equal(t, "5544", till.Till)
	assert.Equal(t, "90", till.Amount)

	wd, err := trigger.Interpret(policy(), trigger.Message{Sender: "0798765432", Body: "WA|100200|3000|STORE1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeWithdraw, wd.Mode)
	assert.Equal(t, "100200", wd.Agent)
	assert.Equal(t, "3000", wd.Amount)
	assert.Equal(t, "STORE1", wd.Store)
}

func TestInterpret_MultiPartConcatenated(t *testing.T) {
	req, err := trigger.Interpret(policy(), trigger.Message{
		Sender: "0798765432",
		Parts:  []string{"PB|8888", "80|1500|A", "CC"},
	})
	require.NoError(t, err)
	assert.Equal(t, "888880", req.Business)
	assert.Equal(t, "ACC", req.Account)
}

func TestInterpret_CarriesConfirmPolicy(t *testing.T) {
	p := policy()
	p.ConfirmAfterAuth = true
	req, err := trigger.Interpret(p, trigger.Message{Sender: "0798765432", Body: "SM|1"})
	require.NoError(t, err)
	assert.True(t, req.ConfirmAfterAuth)
}

func TestInterpret_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Policy)
		msg    trigger.Message
		want   trigger.Reason
	}{
		{"disabled", func(p *domain.Policy) { p.Enabled = false }, trigger.Message{Sender: "0798765432", Body: "SM|1"}, trigger.ReasonDisabled},
		{"blank allow-list", func(p *domain.Policy) { p.AllowedSenders = []string{"", "  "} }, trigger.Message{Sender: "0798765432", Body: "SM|1"}, trigger.ReasonNoAllowList},
		{"no auth code", func(p *domain.Policy) { p.AuthCode = "  " }, trigger.Message{Sender: "0798765432", Body: "SM|1"}, trigger.ReasonNoAuthCode},
		{"unknown sender", nil, trigger.Message{Sender: "0700000000", Body: "SM|0722|500"}, trigger.ReasonUnauthorized},
		{"blank sender", nil, trigger.Message{Sender: "", Body: "SM|500"}, trigger.ReasonUnauthorized},
		{"empty body", nil, trigger.Message{Sender: "0798765432", Body: "   "}, trigger.ReasonEmptyBody},
		{"unknown tag", nil, trigger.Message{Sender: "0798765432", Body: "XX|1|2"}, trigger.ReasonUnknownTag},
		{"too few fields", nil, trigger.Message{Sender: "0798765432", Body: "PB|888880|1500"}, trigger.ReasonUnknownTag},
		{"bare tag", nil, trigger.Message{Sender: "0798765432", Body: "SM"}, trigger.ReasonUnknownTag},
		{"blank field", nil, trigger.Message{Sender: "0798765432", Body: "BG| |90"}, trigger.ReasonBlankField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policy()
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			_, err := trigger.Interpret(p, tt.msg)
			require.Error(t, err)
			assert.Equal(t, tt.want, reason(t, err))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "0798765432", trigger.NormalizePhone("+254798765432"))
	assert.Equal(t, "0798765432", trigger.NormalizePhone("254798765432"))
	assert.Equal(t, "0798765432", trigger.NormalizePhone(" 0798 765-432 "))
	assert.Equal(t, "+15550100", trigger.NormalizePhone("+1 (555) 0100"))
	assert.Equal(t, "", trigger.NormalizePhone("   "))
}

func TestInterpreter_CustomCountryCode(t *testing.T) {
	in := &trigger.Interpreter{CountryCode: "255"}
	p := policy()
	p.AllowedSenders = []string{"0712000000"}

	req, err := in.Interpret(p, trigger.Message{Sender: "+255712000000", Body: "SM|10"})
	require.NoError(t, err)
	assert.Equal(t, "0712000000", req.Phone)
}
