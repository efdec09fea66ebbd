package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tanq16/segdl/internal/utils"
)

const EnvPrefix = "SEGDL"

const (
	maxThreads     = 4096
	maxSegmentSize = 1 << 40
	maxBufferSize  = 256 << 20
)

// Config holds every tunable of a run.
type Config struct {
	Threads          int           `mapstructure:"threads"`
	SegmentSize      int64         `mapstructure:"segment_size"`
	BufferSize       int           `mapstructure:"buffer_size"`
	Strategy         string        `mapstructure:"strategy"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	SocketBuffer     int           `mapstructure:"socket_buffer"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	OutputDir        string        `mapstructure:"output_dir"`
	LogFile          string        `mapstructure:"log_file"`
	Debug            bool          `mapstructure:"debug"`
	NoProgress       bool          `mapstructure:"no_progress"`
}

var defaults = map[string]any{
	"threads":           utils.DefaultThreads,
	"segment_size":      utils.DefaultSegmentSize,
	"buffer_size":       utils.DefaultBufferSize,
	"strategy":          "buffered",
	"connect_timeout":   utils.DefaultConnectTimeout,
	"socket_buffer":     utils.DefaultSocketBuffer,
	"progress_interval": utils.DefaultProgressInterval,
	"output_dir":        "",
	"log_file":          "",
	"debug":             false,
	"no_progress":       false,
}

func Default() Config {
	return Config{
		Threads:          utils.DefaultThreads,
		SegmentSize:      utils.DefaultSegmentSize,
		BufferSize:       utils.DefaultBufferSize,
		Strategy:         "buffered",
		ConnectTimeout:   utils.DefaultConnectTimeout,
		SocketBuffer:     utils.DefaultSocketBuffer,
		ProgressInterval: utils.DefaultProgressInterval,
	}
}

// SetDefaults registers defaults and the SEGDL_* environment bindings on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load resolves the configuration from v: defaults, then the optional YAML
// file at configPath, then the environment, then any flags bound to v.
func Load(v *viper.Viper, configPath string) (Config, error) {
	SetDefaults(v)
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects zero, negative and absurd values.
func (c Config) Validate() error {
	var errs []error
	if c.Threads < 1 || c.Threads > maxThreads {
		errs = append(errs, fmt.Errorf("threads must be between 1 and %d, got %d", maxThreads, c.Threads))
	}
	if c.SegmentSize < 1 || c.SegmentSize > maxSegmentSize {
		errs = append(errs, fmt.Errorf("segment_size must be between 1 and %d bytes, got %d", int64(maxSegmentSize), c.SegmentSize))
	}
	if c.BufferSize < 1 || c.BufferSize > maxBufferSize {
		errs = append(errs, fmt.Errorf("buffer_size must be between 1 and %d bytes, got %d", maxBufferSize, c.BufferSize))
	}
	if c.Strategy != "buffered" && c.Strategy != "splice" {
		errs = append(errs, fmt.Errorf("strategy must be buffered or splice, got %q", c.Strategy))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connect_timeout must be positive"))
	}
	if c.SocketBuffer < 0 {
		errs = append(errs, fmt.Errorf("socket_buffer must not be negative"))
	}
	if c.ProgressInterval <= 0 {
		errs = append(errs, fmt.Errorf("progress_interval must be positive"))
	}
	return errors.Join(errs...)
}
