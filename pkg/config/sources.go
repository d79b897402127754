package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Source priorities. Higher values load later and win.
const (
	PriorityDefaults = 10
	PriorityFile     = 20
	PriorityEnv      = 30
	PriorityFlags    = 40
	PriorityDebug    = 50
)

// ConfigSource is one layer of configuration.
type ConfigSource interface {
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// DefaultSources returns the standard layers: defaults, config file,
// environment, flags and the --debug override.
func DefaultSources(configPath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	sources := []ConfigSource{
		DefaultsSource{},
		FileSource{Path: configPath},
		EnvSource{Prefix: EnvPrefix},
	}
	if flags != nil {
		sources = append(sources, FlagSource{Flags: flags})
	}
	if debug {
		sources = append(sources, MapSource{
			SourceName: "debug",
			Level:      PriorityDebug,
			Values:     map[string]any{"log.level": "debug"},
		})
	}
	return sources
}

// DefaultsSource loads DefaultConfigAsMap.
type DefaultsSource struct{}

func (DefaultsSource) Name() string  { return "defaults" }
func (DefaultsSource) Priority() int { return PriorityDefaults }

func (DefaultsSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil)
}

// MapSource loads a fixed set of dotted keys at a chosen priority.
type MapSource struct {
	SourceName string
	Level      int
	Values     map[string]any
}

func (s MapSource) Name() string  { return s.SourceName }
func (s MapSource) Priority() int { return s.Level }

func (s MapSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(s.Values, "."), nil)
}

// FileSource loads a YAML file. An explicit Path must exist; without one the
// first existing file from DefaultConfigPaths is used, if any.
type FileSource struct {
	Path string
}

func (FileSource) Name() string  { return "file" }
func (FileSource) Priority() int { return PriorityFile }

func (s FileSource) Load(k *koanf.Koanf) error {
	if s.Path != "" {
		if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
			return fmt.Errorf("read %s: %w", s.Path, err)
		}
		return nil
	}
	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if err := k.Load(file.Provider(p), yaml.Parser()); err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		return nil
	}
	return nil
}

// DefaultConfigPaths lists the files searched when no --config is given.
func DefaultConfigPaths() []string {
	paths := []string{"checkport.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "checkport", "config.yaml"))
	}
	return paths
}

// EnvSource loads variables starting with Prefix.
type EnvSource struct {
	Prefix string
}

func (EnvSource) Name() string  { return "env" }
func (EnvSource) Priority() int { return PriorityEnv }

func (s EnvSource) Load(k *koanf.Koanf) error {
	return k.Load(env.Provider(s.Prefix, ".", func(key string) string {
		return EnvKey(s.Prefix, key)
	}), nil)
}

// EnvKey converts an environment variable name to a configuration key:
// CHECKPORT_SCAN_BANNER_TIMEOUT becomes scan.banner_timeout.
func EnvKey(prefix, name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, prefix))
	return strings.Replace(name, "_", ".", 1)
}

// FlagSource loads flags the user set explicitly. Names are translated with
// FlagKeys; flags with no dotted name and no mapping are ignored.
type FlagSource struct {
	Flags *pflag.FlagSet
}

func (FlagSource) Name() string  { return "flags" }
func (FlagSource) Priority() int { return PriorityFlags }

func (s FlagSource) Load(k *koanf.Koanf) error {
	return k.Load(posflag.ProviderWithFlag(s.Flags, ".", k, func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		key, ok := FlagKeys[f.Name]
		if !ok {
			if !strings.Contains(f.Name, ".") {
				return "", nil
			}
			key = f.Name
		}
		return key, posflag.FlagVal(s.Flags, f)
	}), nil)
}
