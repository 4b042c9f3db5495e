package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/adapters/file"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements SessionStore
var _ ports.SessionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "state", "session.json"))
	ports.RunSessionStoreContract(t, store)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	state := domain.NewSessionState("restart", domain.TransactionRequest{
		Mode: domain.ModeSendMoney, Amount: "500", Phone: "0712345678", AuthCode: "1234",
	})
	state.Step = domain.StepSendAmount
	require.NoError(t, file.New(path).Save(ctx, state))

	// A new Store instance stands in for a relaunched process.
	loaded, err := file.New(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StepSendAmount, loaded.Step)
	assert.True(t, loaded.Pending)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := file.New(filepath.Join(dir, "session.json"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, domain.NewSessionState("tmp", domain.TransactionRequest{
			Mode: domain.ModeTill, Amount: "1", Till: "2", AuthCode: "3",
		})))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := file.New(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
