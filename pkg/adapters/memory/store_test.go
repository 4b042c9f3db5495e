package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_SaveIsolatesCaller(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state := domain.NewSessionState("iso", domain.TransactionRequest{
		Mode: domain.ModeTill, Amount: "40", Till: "123456", AuthCode: "0000",
	})
	require.NoError(t, store.Save(ctx, state))

	state.Step = domain.StepTillAmount

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StepNone, loaded.Step)
}
