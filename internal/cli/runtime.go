// Package cli holds the wiring shared by the ussdpilot commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/config"
	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/adapters/file"
	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/ussdpilot/pkg/adapters/redis"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/persistence/middleware"
	"github.com/aretw0/ussdpilot/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// LockPrefix namespaces the Redis lock keys.
const LockPrefix = "ussdpilot:"

// Runtime bundles the configured logger and session store.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
	Store  ports.SessionStore
	Locker ports.DistributedLocker

	closers []func() error
}

// Open builds the logger and the store selected by cfg. Close releases them.
func Open(cfg *config.Config, logOut io.Writer) (*Runtime, error) {
	rt := &Runtime{
		Config: cfg,
		Logger: NewLogger(cfg.Log, logOut),
	}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		rt.Store = memory.NewStore()
	case config.BackendFile:
		rt.Store = file.New(cfg.Store.Path)
	case config.BackendRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		var opts []redisAdapter.Option
		if cfg.Store.Redis.Key != "" {
			opts = append(opts, redisAdapter.WithKey(cfg.Store.Redis.Key))
		}
		if cfg.Store.Redis.TTL > 0 {
			opts = append(opts, redisAdapter.WithTTL(cfg.Store.Redis.TTL))
		}
		rt.Store = redisAdapter.NewFromClient(client, opts...)
		rt.Locker = redisAdapter.NewLocker(client, LockPrefix)
		rt.closers = append(rt.closers, client.Close)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Store.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Store.EncryptionKey)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.Store = middleware.Chain(rt.Store,
			middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
		)
	}

	rt.Logger.Debug("store ready", "backend", cfg.Store.Backend, "encrypted", cfg.Store.EncryptionKey != "")
	return rt, nil
}

// Close releases backend connections.
func (rt *Runtime) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// PilotOptions translates the configuration into Pilot options.
func (rt *Runtime) PilotOptions(hooks ...domain.LifecycleHooks) []ussdpilot.Option {
	cfg := rt.Config
	opts := []ussdpilot.Option{
		ussdpilot.WithStore(rt.Store),
		ussdpilot.WithLogger(rt.Logger),
		ussdpilot.WithPolicy(cfg),
		ussdpilot.WithTiming(cfg.Timing),
		ussdpilot.WithMaxConfirmRetries(cfg.MaxConfirmRetries),
		ussdpilot.WithMarkers(cfg.Markers...),
		ussdpilot.WithOwnerID(cfg.Automation.OwnerID),
		ussdpilot.WithAccessCode(cfg.Automation.AccessCode),
	}
	if rt.Locker != nil {
		opts = append(opts, ussdpilot.WithLocker(rt.Locker))
	}
	for _, h := range hooks {
		opts = append(opts, ussdpilot.WithHooks(h))
	}
	return opts
}

// NewLogger builds the logger described by cfg. "json" selects JSON lines.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if strings.EqualFold(cfg.Format, "json") {
		return logging.NewJSON(w, level)
	}
	return logging.NewWithWriter(w, level)
}
