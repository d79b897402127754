package config

import (
	"net"
	"strconv"
	"time"

	"github.com/Mohammed-el-Amine/check-port/pkg/remediate"
	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
)

// Config is the merged application configuration.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Scan      ScanConfig      `koanf:"scan"`
	Remediate RemediateConfig `koanf:"remediate"`
	Server    ServerConfig    `koanf:"server"`
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// ScanConfig holds scan defaults. Zero Timeout and Workers mean "derive from
// the port count".
type ScanConfig struct {
	DefaultTarget string        `koanf:"default_target"`
	Ports         string        `koanf:"ports"`
	Timeout       time.Duration `koanf:"timeout"`
	Workers       int           `koanf:"workers"`
	BannerTimeout time.Duration `koanf:"banner_timeout"`
	BannerSize    int           `koanf:"banner_size"`
	ShowDynamic   bool          `koanf:"show_dynamic"`
}

// RemediateConfig controls the interactive port-closing workflow.
type RemediateConfig struct {
	SettleDelay time.Duration `koanf:"settle_delay"`
	// LockDir holds the session lock file. Empty means the OS temp dir.
	LockDir string `koanf:"lock_dir"`
}

// ServerConfig controls `checkport serve`.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Port            int           `koanf:"port"`
	MaxJobs         int           `koanf:"max_jobs"`
	QueueSize       int           `koanf:"queue_size"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ListenAddr joins Addr and Port.
func (s ServerConfig) ListenAddr() string {
	return net.JoinHostPort(s.Addr, strconv.Itoa(s.Port))
}

// DefaultServerConfig returns the built-in server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1",
		Port:            8080,
		MaxJobs:         2,
		QueueSize:       16,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultScanConfig returns the built-in scan settings.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		DefaultTarget: "127.0.0.1",
		BannerTimeout: scan.DefaultBannerTimeout,
		BannerSize:    scan.DefaultBannerSize,
	}
}

// DefaultRemediateConfig returns the built-in remediation settings.
func DefaultRemediateConfig() RemediateConfig {
	return RemediateConfig{SettleDelay: remediate.DefaultSettleDelay}
}
