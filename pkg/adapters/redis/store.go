package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/mitchellh/mapstructure"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.SessionStore using a Redis hash.
// Each SessionState field is kept as its own hash field so the record stays
// readable with plain HGETALL.
type Store struct {
	client *backend.Client
	key    string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of the session record.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithKey sets the hash key holding the session.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// DefaultKey is the hash key used when none is configured.
const DefaultKey = "ussdpilot:session"

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		key:    DefaultKey,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Save replaces the hash atomically.
func (s *Store) Save(ctx context.Context, state *domain.SessionState) error {
	fields := encode(state)

	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load reads the hash back into a SessionState.
func (s *Store) Load(ctx context.Context) (*domain.SessionState, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	state, err := decode(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session hash: %w", err)
	}
	return state, nil
}

// Clear removes the hash.
func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

const fieldUpdatedAt = "updatedAt"

func encode(state *domain.SessionState) map[string]any {
	return map[string]any{
		"id":                state.ID,
		"pending":           strconv.FormatBool(state.Pending),
		"state":             string(state.Step),
		"confirmRetryCount": strconv.Itoa(state.ConfirmRetryCount),
		"closing":           strconv.FormatBool(state.Closing),
		"mode":              string(state.Mode),
		"amount":            state.Amount,
		"phone":             state.Phone,
		"till":              state.Till,
		"business":          state.Business,
		"account":           state.Account,
		"agent":             state.Agent,
		"store":             state.Store,
		"authCode":          state.AuthCode,
		"confirmAfterAuth":  strconv.FormatBool(state.ConfirmAfterAuth),
		fieldUpdatedAt:      updatedAt(state.UpdatedAt),
	}
}

func updatedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func decode(fields map[string]string) (*domain.SessionState, error) {
	var state domain.SessionState
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &state,
	})
	if err != nil {
		return nil, err
	}

	raw := make(map[string]any, len(fields))
	for k, v := range fields {
		raw[k] = v
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	if ns, ok := fields[fieldUpdatedAt]; ok && ns != "" {
		n, err := strconv.ParseInt(ns, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", fieldUpdatedAt, err)
		}
		state.UpdatedAt = time.Unix(0, n).UTC()
	}
	return &state, nil
}
