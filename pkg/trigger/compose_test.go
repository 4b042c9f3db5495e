package trigger_test

import (
	"testing"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		req  domain.TransactionRequest
		want string
	}{
		{domain.TransactionRequest{Mode: domain.ModeSendMoney, Phone: "0722333444", Amount: "250"}, "SM|0722333444|250"},
		{domain.TransactionRequest{Mode: domain.ModeSendMoney, Amount: "500"}, "SM|500"},
		{domain.TransactionRequest{Mode: domain.ModeTill, Till: "5544", Amount: "90"}, "BG|5544|90"},
		{domain.TransactionRequest{Mode: domain.ModePaybill, Business: "888880", Amount: "1500", Account: "ACC-77"}, "PB|888880|1500|ACC-77"},
		{domain.TransactionRequest{Mode: domain.ModeWithdraw, Agent: "100200", Amount: "3000", Store: "STORE1"}, "WA|100200|3000|STORE1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.req.Mode), func(t *testing.T) {
			got, err := trigger.Compose(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompose_RoundTripsThroughInterpret(t *testing.T) {
	req := domain.TransactionRequest{Mode: domain.ModePaybill, Business: "888880", Amount: "1500", Account: "ACC-77"}
	body, err := trigger.Compose(req)
	require.NoError(t, err)

	got, err := trigger.Interpret(policy(), trigger.Message{Sender: "0798765432", Body: body})
	require.NoError(t, err)
	assert.Equal(t, req.Business, got.Business)
	assert.Equal(t, req.Account, got.Account)
	assert.Equal(t, req.Amount, got.Amount)
}

func TestCompose_Invalid(t *testing.T) {
	_, err := trigger.Compose(domain.TransactionRequest{Mode: "LOAN", Amount: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = trigger.Compose(domain.TransactionRequest{Mode: domain.ModeTill, Amount: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = trigger.Compose(domain.TransactionRequest{Mode: domain.ModeTill, Till: "1|2", Amount: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
