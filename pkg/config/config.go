// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "CHECKPORT_"

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance.
// This should be called early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a new Manager backed by the global Koanf instance.
func NewManager() *Manager {
	InitGlobalConfig()
	return &Manager{
		koanfInstance: k,
		currentConfig: DefaultConfig(),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Scan:      DefaultScanConfig(),
		Remediate: DefaultRemediateConfig(),
		Server:    DefaultServerConfig(),
	}
}

// Load loads configuration from various sources based on precedence.
// It populates the manager's currentConfig.
//
// Configuration precedence (highest to lowest):
//  1. --debug (forces log.level=debug)
//  2. Command-line flags (--log.level=debug, --timeout=2s)
//  3. Environment variables (CHECKPORT_LOG_LEVEL=debug)
//  4. Config file (YAML)
//  5. Default values
//
// Environment variables use the CHECKPORT_ prefix; the first underscore
// after the prefix separates the section from the key:
//
//	CHECKPORT_LOG_LEVEL             -> log.level
//	CHECKPORT_SCAN_BANNER_TIMEOUT   -> scan.banner_timeout
//
// For custom source ordering, use LoadWithSources() instead.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	debug := false
	if flags != nil {
		if debugFlag := flags.Lookup("debug"); debugFlag != nil {
			debug = cast.ToBool(debugFlag.Value.String())
		}
	}

	sources := DefaultSources(customConfigFilePath, flags, debug)
	return m.LoadWithSources(sources)
}

// LoadWithSources loads configuration from the provided sources in priority order.
// Sources with lower priority values are loaded first, higher priority sources
// override lower priority values.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	for _, src := range sources {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("error loading config from %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := validate(newCfg); err != nil {
		return err
	}
	m.currentConfig = newCfg

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// GetValue retrieves a configuration value by key path.
// Example: GetValue("scan.workers")
// Returns nil if key doesn't exist.
func (m *Manager) GetValue(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance.Get(key)
}

// GetDuration returns the value at key as a duration. Bare numbers are
// nanoseconds; strings use time.ParseDuration syntax.
func (m *Manager) GetDuration(key string) time.Duration {
	return cast.ToDuration(m.GetValue(key))
}

// GetInt returns the value at key as an int, or 0.
func (m *Manager) GetInt(key string) int {
	return cast.ToInt(m.GetValue(key))
}

func validate(cfg Config) error {
	switch {
	case cfg.Scan.Timeout < 0:
		return fmt.Errorf("scan.timeout must not be negative, got %s", cfg.Scan.Timeout)
	case cfg.Scan.Workers < 0:
		return fmt.Errorf("scan.workers must not be negative, got %d", cfg.Scan.Workers)
	case cfg.Scan.BannerSize < 0:
		return fmt.Errorf("scan.banner_size must not be negative, got %d", cfg.Scan.BannerSize)
	case cfg.Server.Port < 0 || cfg.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}

// DefaultConfigAsMap flattens DefaultConfig for Koanf's confmap.Provider so
// that every key is known before other sources load.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		"scan.default_target": def.Scan.DefaultTarget,
		"scan.ports":          def.Scan.Ports,
		"scan.timeout":        def.Scan.Timeout,
		"scan.workers":        def.Scan.Workers,
		"scan.banner_timeout": def.Scan.BannerTimeout,
		"scan.banner_size":    def.Scan.BannerSize,
		"scan.show_dynamic":   def.Scan.ShowDynamic,

		"remediate.settle_delay": def.Remediate.SettleDelay,
		"remediate.lock_dir":     def.Remediate.LockDir,

		"server.addr":             def.Server.Addr,
		"server.port":             def.Server.Port,
		"server.max_jobs":         def.Server.MaxJobs,
		"server.queue_size":       def.Server.QueueSize,
		"server.read_timeout":     def.Server.ReadTimeout,
		"server.write_timeout":    def.Server.WriteTimeout,
		"server.shutdown_timeout": def.Server.ShutdownTimeout,
	}
}

// FlagKeys maps command-line flag names to configuration keys. Flags named
// after a key (log.level) need no entry.
var FlagKeys = map[string]string{
	"timeout":        "scan.timeout",
	"workers":        "scan.workers",
	"show-dynamic":   "scan.show_dynamic",
	"banner-timeout": "scan.banner_timeout",
	"settle-delay":   "remediate.settle_delay",
	"lock-dir":       "remediate.lock_dir",
	"addr":           "server.addr",
	"port":           "server.port",
	"max-jobs":       "server.max_jobs",
}

// BindFlags defines the global command-line flags that override
// configuration. Command-specific flags are registered by each command and
// mapped through FlagKeys.
func BindFlags(flags *pflag.FlagSet) {
	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")
}
