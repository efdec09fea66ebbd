package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want %+v", cfg, Default())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segdl.yaml")
	content := `threads: 8
segment_size: 4194304
strategy: splice
connect_timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEGDL_THREADS", "16")
	t.Setenv("SEGDL_BUFFER_SIZE", "65536")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threads != 16 {
		t.Errorf("Threads = %d, want env override 16", cfg.Threads)
	}
	if cfg.SegmentSize != 4<<20 || cfg.BufferSize != 65536 {
		t.Errorf("SegmentSize = %d, BufferSize = %d", cfg.SegmentSize, cfg.BufferSize)
	}
	if cfg.Strategy != "splice" || cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("Strategy = %q, ConnectTimeout = %v", cfg.Strategy, cfg.ConnectTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load with missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero threads", func(c *Config) { c.Threads = 0 }, "threads"},
		{"too many threads", func(c *Config) { c.Threads = 100_000 }, "threads"},
		{"zero segment", func(c *Config) { c.SegmentSize = 0 }, "segment_size"},
		{"huge buffer", func(c *Config) { c.BufferSize = 1 << 30 }, "buffer_size"},
		{"unknown strategy", func(c *Config) { c.Strategy = "mmap" }, "strategy"},
		{"zero timeout", func(c *Config) { c.ConnectTimeout = 0 }, "connect_timeout"},
		{"zero interval", func(c *Config) { c.ProgressInterval = 0 }, "progress_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}
