package ports

import (
	"context"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewSessionState("contract-1", domain.TransactionRequest{
			Mode:             domain.ModePaybill,
			Amount:           "1500",
			Business:         "888880",
			Account:          "ACC-77",
			AuthCode:         "4321",
			ConfirmAfterAuth: true,
		})
		state.Step = domain.StepPayAccount
		state.ConfirmRetryCount = 3

		require.NoError(t, store.Save(ctx, state))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "contract-1", loaded.ID)
		assert.True(t, loaded.Pending)
		assert.Equal(t, domain.StepPayAccount, loaded.Step)
		assert.Equal(t, domain.ModePaybill, loaded.Mode)
		assert.Equal(t, "1500", loaded.Amount)
		assert.Equal(t, "888880", loaded.Business)
		assert.Equal(t, "ACC-77", loaded.Account)
		assert.Equal(t, "4321", loaded.AuthCode)
		assert.True(t, loaded.ConfirmAfterAuth)
		assert.Equal(t, 3, loaded.ConfirmRetryCount)
	})

	t.Run("Save Replaces Wholesale", func(t *testing.T) {
		first := domain.NewSessionState("contract-2", domain.TransactionRequest{
			Mode: domain.ModeWithdraw, Amount: "200", Agent: "12345", Store: "001", AuthCode: "1111",
		})
		require.NoError(t, store.Save(ctx, first))

		second := domain.NewSessionState("contract-3", domain.TransactionRequest{
			Mode: domain.ModeTill, Amount: "90", Till: "55555", AuthCode: "2222",
		})
		require.NoError(t, store.Save(ctx, second))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "contract-3", loaded.ID)
		assert.Empty(t, loaded.Agent, "fields of the superseded session must not leak")
		assert.Empty(t, loaded.Store)
		assert.Equal(t, "55555", loaded.Till)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSessionState("contract-4", domain.TransactionRequest{
			Mode: domain.ModeSendMoney, Amount: "10", Phone: "0700000000", AuthCode: "9999",
		})))
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		loaded.Step = domain.StepDone

		again, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.StepNone, again.Step)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSessionState("contract-5", domain.TransactionRequest{
			Mode: domain.ModeSendMoney, Amount: "10", Phone: "0700000000", AuthCode: "9999",
		})))
		require.NoError(t, store.Clear(ctx))

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Clear should return ErrSessionNotFound")

		assert.NoError(t, store.Clear(ctx), "clearing twice is not an error")
	})
}
