// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func writeConfig(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	want := &Config{
		MaxIovecs:     64,
		MaxBytes:      1 << 20,
		DisableUnsafe: true,
		PageSize:      512,
		MaxBuffered:   4096,
		Retries:       8,
		Log:           "dev",
	}
	yamlPath := writeConfig(t, "writev.yaml", `
max_iovecs: 64
max_bytes: 1048576
disable_unsafe: true
page_size: 512
max_buffered: 4096
log: dev
`)
	tomlPath := writeConfig(t, "writev.toml", `
max_iovecs = 64
max_bytes = 1048576
disable_unsafe = true
page_size = 512
max_buffered = 4096
log = "dev"
`)
	for _, path := range []string{yamlPath, tomlPath} {
		c, err := LoadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, c, cmpopts.IgnoreFields(Config{}, "Logger")); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", filepath.Base(path), diff)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}

func TestConfigLimits(t *testing.T) {
	c := DefaultConfig()
	l, err := c.Limits()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(PlatformLimits(), l); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	c.MaxIovecs = IOV_MAX * 4
	if l, _ := c.Limits(); l.MaxIovecs != IOV_MAX {
		t.Error(l.MaxIovecs)
	}
	c.MaxIovecs = 3
	c.AddressSize = AddressSize
	if l, _ := c.Limits(); l.MaxIovecs != 3 || l.AddressSize != AddressSize {
		t.Error(l)
	}
	c.AddressSize = 12 - AddressSize
	if _, err := c.NewAggregator(); !errors.Is(err, ErrLimits) {
		t.Error(err)
	}
	c.AddressSize = 5
	if _, err := c.Limits(); !errors.Is(err, ErrLimits) {
		t.Error(err)
	}
	c.AddressSize = 0
	c.MaxIovecs = -1
	if _, err := c.Limits(); !errors.Is(err, ErrLimits) {
		t.Error(err)
	}
}

func TestConfigNewAggregator(t *testing.T) {
	c := DefaultConfig()
	c.MaxIovecs = 4
	c.MaxBytes = 100
	c.DisableUnsafe = true
	if c.Capabilities().Unsafe {
		t.Error("unsafe not disabled")
	}
	agg, err := c.NewAggregator()
	if err != nil {
		t.Fatal(err)
	}
	defer agg.Release()
	if agg.Cap() != 4 || agg.MaxBytes() != 100 {
		t.Error(agg.Cap(), agg.MaxBytes())
	}
	c.MaxBytes = -1
	if _, err := c.NewAggregator(); !errors.Is(err, ErrLimits) {
		t.Error(err)
	}
}

func TestNewLogger(t *testing.T) {
	for _, mode := range []string{"prod", "dev", "", "nop"} {
		l, err := NewLogger(mode)
		if err != nil || l == nil {
			t.Fatal(mode, err)
		}
	}
	c := DefaultConfig()
	l, _ := NewLogger("nop")
	c.Logger = l
	if got, _ := c.GetLogger(); got != l {
		t.Error("configured logger ignored")
	}
}
