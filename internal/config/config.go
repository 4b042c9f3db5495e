// Package config loads ussdpilot settings from a YAML or JSON file and the environment.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is named. A missing default file is not an error.
const DefaultPath = "ussdpilot.yaml"

// EnvPrefix prefixes every environment override, e.g. USSDPILOT_AUTOMATION_AUTH_CODE.
const EnvPrefix = "USSDPILOT_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the complete runtime configuration.
type Config struct {
	Automation        Automation    `mapstructure:"automation"`
	Timing            domain.Timing `mapstructure:"timing"`
	MaxConfirmRetries int           `mapstructure:"max_confirm_retries"`
	Markers           []string      `mapstructure:"markers"`
	Store             StoreConfig   `mapstructure:"store"`
	HTTP              HTTPConfig    `mapstructure:"http"`
	Log               LogConfig     `mapstructure:"log"`
}

// Automation is the trigger policy plus how to reach the menu session.
type Automation struct {
	domain.Policy `mapstructure:",squash"`
	AccessCode    string `mapstructure:"access_code"`
	OwnerID       string `mapstructure:"owner_id"`
}

// StoreConfig selects where the session cursor is persisted.
type StoreConfig struct {
	Backend       string      `mapstructure:"backend"`
	Path          string      `mapstructure:"path"`
	Redis         RedisConfig `mapstructure:"redis"`
	EncryptionKey string      `mapstructure:"encryption_key"`
}

// RedisConfig configures the Redis store and lock.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HTTPConfig configures the webhook server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing is overridden.
// The automation is disabled until an allow-list and auth code are provided.
func Default() *Config {
	return &Config{
		Automation: Automation{
			AccessCode: domain.DefaultAccessCode,
			OwnerID:    domain.DefaultOwnerID,
		},
		Timing:            domain.DefaultTiming(),
		MaxConfirmRetries: domain.DefaultMaxConfirmRetries,
		Store:             StoreConfig{Backend: BackendFile},
		HTTP:              HTTPConfig{Addr: ":8080"},
		Log:               LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (or DefaultPath when empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.Environ())
}

func load(path string, environ []string) (*Config, error) {
	raw := map[string]any{}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := parse(path, data, raw); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(raw, environ)

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Markers) == 0 {
		cfg.Markers = append([]string(nil), domain.DefaultMarkers...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(path string, data []byte, into map[string]any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &into); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, &into); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv overlays USSDPILOT_* variables onto raw, one per leaf key of Config.
func applyEnv(raw map[string]any, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	if len(env) == 0 {
		return
	}
	for _, path := range leafKeys(typeOfConfig(), nil) {
		name := EnvPrefix + strings.ToUpper(strings.Join(path, "_"))
		if v, ok := env[name]; ok {
			set(raw, path, v)
		}
	}
}

func leafKeys(t reflect.Type, prefix []string) [][]string {
	var keys [][]string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if tag == "-" {
			continue
		}
		path := prefix
		if opts != "squash" {
			if tag == "" {
				tag = strings.ToLower(f.Name)
			}
			path = append(append([]string(nil), prefix...), tag)
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Time{}) {
			keys = append(keys, leafKeys(f.Type, path)...)
			continue
		}
		keys = append(keys, path)
	}
	return keys
}

func set(raw map[string]any, path []string, value string) {
	m := raw
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	timings := map[string]time.Duration{
		"initial_delay":      c.Timing.InitialDelay,
		"step_delay":         c.Timing.StepDelay,
		"confirm_delay":      c.Timing.ConfirmDelay,
		"result_close_delay": c.Timing.ResultCloseDelay,
		"deadman":            c.Timing.Deadman,
		"recovery_delay":     c.Timing.RecoveryDelay,
	}
	for name, d := range timings {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("timing.%s must be positive, got %s", name, d))
		}
	}
	if c.MaxConfirmRetries < 0 {
		errs = append(errs, errors.New("max_confirm_retries must not be negative"))
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption_key: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Policy implements ports.PolicySource.
func (c *Config) Policy(context.Context) (domain.Policy, error) {
	p := c.Automation.Policy
	p.AllowedSenders = append([]string(nil), p.AllowedSenders...)
	return p, nil
}

func typeOfConfig() reflect.Type {
	return reflect.TypeOf(Config{})
}
