// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config configures an Aggregator and a Writer. Zero fields take the
// platform defaults.
type Config struct {
	// MaxIovecs caps the entries per writev. It is clamped to IOV_MAX.
	MaxIovecs int `yaml:"max_iovecs" toml:"max_iovecs"`
	// MaxBytes is the byte budget of one writev.
	MaxBytes int64 `yaml:"max_bytes" toml:"max_bytes"`
	// AddressSize is the iovec field width. It must match the platform.
	AddressSize int `yaml:"address_size" toml:"address_size"`
	// DisableUnsafe stores entries through encoding/binary instead of raw pointers.
	DisableUnsafe bool `yaml:"disable_unsafe" toml:"disable_unsafe"`
	// PageSize is the size class step of the scratch buffer pools.
	PageSize int `yaml:"page_size" toml:"page_size"`
	// MaxBuffered caps the bytes a Writer queues before Write flushes
	// inline. Zero leaves the queue unbounded.
	MaxBuffered int64 `yaml:"max_buffered" toml:"max_buffered"`
	// Retries bounds the EAGAIN retries of one Writer flush.
	Retries uint64 `yaml:"retries" toml:"retries"`
	// Log selects the logger built by Logger when none is set: prod, dev or nop.
	Log string `yaml:"log" toml:"log"`

	// Logger overrides Log.
	Logger *zap.Logger `yaml:"-" toml:"-"`
}

// DefaultConfig returns the platform defaults.
func DefaultConfig() *Config {
	return &Config{Retries: 8, MaxBuffered: 1 << 20}
}

// LoadConfig reads a config file. Files ending in .toml are decoded as TOML,
// everything else as YAML.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if filepath.Ext(path) == ".toml" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("writev: load config %s: %w", path, err)
		}
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("writev: load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("writev: load config %s: %w", path, err)
	}
	return c, nil
}

// Limits merges the overrides of c into PlatformLimits.
func (c *Config) Limits() (Limits, error) {
	l := PlatformLimits()
	if c.MaxIovecs < 0 {
		return l, fmt.Errorf("%w: max iovecs %d", ErrLimits, c.MaxIovecs)
	}
	if c.MaxIovecs > 0 {
		l.MaxIovecs = min(c.MaxIovecs, l.MaxIovecs)
	}
	if c.AddressSize != 0 {
		l.AddressSize = c.AddressSize
	}
	return l, l.validate()
}

// Capabilities returns the probed capabilities with the overrides of c.
func (c *Config) Capabilities() Capabilities {
	caps := ProbeCapabilities()
	if c.DisableUnsafe {
		caps.Unsafe = false
	}
	return caps
}

// NewAggregator builds an Aggregator from c.
func (c *Config) NewAggregator() (*Aggregator, error) {
	limits, err := c.Limits()
	if err != nil {
		return nil, err
	}
	if c.MaxBytes < 0 {
		return nil, fmt.Errorf("%w: max bytes %d", ErrLimits, c.MaxBytes)
	}
	agg, err := NewAggregator(limits, c.Capabilities())
	if err != nil {
		return nil, err
	}
	if c.MaxBytes > 0 {
		agg.SetMaxBytes(c.MaxBytes)
	}
	return agg, nil
}

// GetLogger returns c.Logger, or builds one from c.Log.
func (c *Config) GetLogger() (*zap.Logger, error) {
	if c.Logger != nil {
		return c.Logger, nil
	}
	return NewLogger(c.Log)
}
