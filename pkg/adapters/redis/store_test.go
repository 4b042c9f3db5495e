package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/ussdpilot/pkg/adapters/redis"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_HashLayout(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithKey("test:session"))
	ctx := context.Background()

	state := domain.NewSessionState("layout", domain.TransactionRequest{
		Mode: domain.ModeSendMoney, Amount: "500", Phone: "0712345678", AuthCode: "1234",
	})
	state.Step = domain.StepSendPhone
	state.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Save(ctx, state))

	assert.Equal(t, "true", mr.HGet("test:session", "pending"))
	assert.Equal(t, "SM_PHONE", mr.HGet("test:session", "state"))
	assert.Equal(t, "SEND_MONEY", mr.HGet("test:session", "mode"))
	assert.Equal(t, "0712345678", mr.HGet("test:session", "phone"))
	assert.Equal(t, "0", mr.HGet("test:session", "confirmRetryCount"))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, state.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestRedisStore_DecodesExternalWrites(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	// Another process wrote the hash with its own encoding of booleans.
	mr.HSet(redis.DefaultKey, "pending", "1", "state", "CONFIRM_1", "mode", "TILL",
		"confirmRetryCount", "5", "confirmAfterAuth", "1", "till", "777")

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.Pending)
	assert.True(t, loaded.ConfirmAfterAuth)
	assert.Equal(t, domain.StepConfirm, loaded.Step)
	assert.Equal(t, 5, loaded.ConfirmRetryCount)
	assert.Equal(t, "777", loaded.Till)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSessionState("ttl", domain.TransactionRequest{
		Mode: domain.ModeTill, Amount: "1", Till: "2", AuthCode: "3",
	})))

	_, err := store.Load(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStore_BadCounter(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	mr.HSet(redis.DefaultKey, "pending", "true", "confirmRetryCount", "lots")

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}
