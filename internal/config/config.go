// Package config loads WalkPoints settings from a TOML file and the
// environment, and reloads them when the file changes.
//
// Environment overrides use the WALKPOINTS_ prefix with dots replaced by
// underscores, e.g. WALKPOINTS_NAV_INACTIVITY_TIMEOUT_MS=3000.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/walkpoints/walkpoints/internal/navvis"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "WALKPOINTS"

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Log      LogConfig      `mapstructure:"log" json:"log"`
	Nav      NavConfig      `mapstructure:"nav" json:"nav"`
	UI       UIConfig       `mapstructure:"ui" json:"ui"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path" jsonschema_description:"SQLite database file"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error" jsonschema_description:"Minimum log level"`
	File  string `mapstructure:"file" json:"file" jsonschema_description:"Log file; the terminal belongs to the UI"`
}

// NavConfig holds tab bar behavior.
type NavConfig struct {
	AutoHide            bool `mapstructure:"auto_hide" json:"auto_hide" jsonschema_description:"Hide the tab bar after a period without interaction"`
	InactivityTimeoutMs int  `mapstructure:"inactivity_timeout_ms" json:"inactivity_timeout_ms" jsonschema:"minimum=1" jsonschema_description:"Milliseconds without interaction before the tab bar hides"`
	AnimationMs         int  `mapstructure:"animation_ms" json:"animation_ms" jsonschema:"minimum=0" jsonschema_description:"Length of the show and hide animation in milliseconds"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Role           string `mapstructure:"role" json:"role" jsonschema:"enum=,enum=user,enum=business" jsonschema_description:"Start in this role instead of asking"`
	SkipOnboarding bool   `mapstructure:"skip_onboarding" json:"skip_onboarding" jsonschema_description:"Never show the onboarding pages"`
}

// ProviderConfig converts the nav settings into visibility provider
// options. Disabling auto-hide keeps the bar visible permanently.
func (n NavConfig) ProviderConfig() navvis.Config {
	if !n.AutoHide {
		return navvis.Config{InactivityTimeout: navvis.NeverHide}
	}
	return navvis.Config{InactivityTimeout: time.Duration(n.InactivityTimeoutMs) * time.Millisecond}
}

// Animation returns the show and hide animation length.
func (n NavConfig) Animation() time.Duration {
	return time.Duration(n.AnimationMs) * time.Millisecond
}

// DataDir returns ~/.walkpoints, where the database and log live.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".walkpoints")
}

// DefaultConfigFile returns ~/.config/walkpoints/config.toml.
func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "walkpoints", "config.toml")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(DataDir(), "walkpoints.db")},
		Log:      LogConfig{Level: "info", File: filepath.Join(DataDir(), "walkpoints.log")},
		Nav: NavConfig{
			AutoHide:            true,
			InactivityTimeoutMs: int(navvis.DefaultInactivityTimeout / time.Millisecond),
			AnimationMs:         250,
		},
	}
}

// Validate checks a configuration for values the application cannot use.
func Validate(c *Config) error {
	var errs []error
	if c.Nav.InactivityTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("nav.inactivity_timeout_ms must be positive, got %d", c.Nav.InactivityTimeoutMs))
	}
	if c.Nav.AnimationMs < 0 {
		errs = append(errs, fmt.Errorf("nav.animation_ms must not be negative, got %d", c.Nav.AnimationMs))
	}
	switch c.UI.Role {
	case "", "user", "business":
	default:
		errs = append(errs, fmt.Errorf("ui.role must be user or business, got %q", c.UI.Role))
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	return errors.Join(errs...)
}

// Manager owns a viper instance and the last valid configuration.
type Manager struct {
	mu        sync.RWMutex
	viper     *viper.Viper
	config    *Config
	explicit  string
	watching  bool
	callbacks []func(*Config)
	log       *zap.Logger
}

// NewManager creates a manager reading path, or WALKPOINTS_CONFIG, or the
// default config file, in that order.
func NewManager(path string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	return &Manager{
		viper:    viper.New(),
		explicit: path,
		log:      log,
	}
}

// SetLogger replaces the logger once logging is configured.
func (m *Manager) SetLogger(log *zap.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log
}

// Load reads defaults, the config file if present, and the environment.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.viper
	d := Default()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("nav.auto_hide", d.Nav.AutoHide)
	v.SetDefault("nav.inactivity_timeout_ms", d.Nav.InactivityTimeoutMs)
	v.SetDefault("nav.animation_ms", d.Nav.AnimationMs)
	v.SetDefault("ui.role", d.UI.Role)
	v.SetDefault("ui.skip_onboarding", d.UI.SkipOnboarding)

	v.SetConfigType("toml")
	if m.explicit != "" {
		v.SetConfigFile(m.explicit)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultConfigFile()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return m.reload()
}

// reload must be called with m.mu held for write.
func (m *Manager) reload() error {
	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	c := &Config{}
	if err := m.viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	c.Database.Path = expandHome(c.Database.Path)
	c.Log.File = expandHome(c.Log.File)
	c.Log.Level = strings.ToLower(c.Log.Level)

	if err := Validate(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.config = c
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Default()
	}
	c := *m.config
	return &c
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (m *Manager) ConfigFileUsed() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.ConfigFileUsed()
}

// OnConfigChange registers a callback run after each successful reload.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Watch starts watching the config file and reloads it on change. Invalid
// edits are logged and the previous configuration stays in effect. Without
// a config file on disk Watch does nothing.
func (m *Manager) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil
	}
	file := m.viper.ConfigFileUsed()
	if file == "" {
		m.log.Debug("no config file to watch")
		return nil
	}
	if _, err := os.Stat(file); err != nil {
		m.log.Debug("config file missing, not watching", zap.String("file", file))
		return nil
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		m.mu.Lock()
		m.log.Debug("config change detected", zap.String("op", e.Op.String()), zap.String("file", e.Name))

		if err := m.reload(); err != nil {
			m.log.Warn("failed to reload config", zap.Error(err))
			m.mu.Unlock()
			return
		}
		m.notifyCallbacksLocked()
	})
	m.viper.WatchConfig()

	m.watching = true
	return nil
}

// notifyCallbacksLocked copies callbacks and config, releases the lock,
// then notifies.
func (m *Manager) notifyCallbacksLocked() {
	c := *m.config
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, callback := range callbacks {
		cfg := c
		callback(&cfg)
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
