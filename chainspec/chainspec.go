// Package chainspec is the TOML-backed configuration layer for the PVM
// node stack: gas model selection, size caps, memory zone sizes, and
// inspection-API settings.
package chainspec

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the node-level constants: the gas model, the invocation
// size/gas caps, and the inspection API's listen address.
type Config struct {
	Gas struct {
		// Model selects "per_instruction" (the default) or
		// "per_basic_block".
		Model          string `toml:"model"`
		MemoryOpCost   uint64 `toml:"memory_op_cost"`
		UnlikelyCost   uint64 `toml:"unlikely_cost"`
		AuthGasLimit   uint64 `toml:"auth_gas_limit"`
		RefineGasLimit uint64 `toml:"refine_gas_limit"`
	} `toml:"gas"`

	SizeCaps struct {
		MaxAuthCodeSize    int `toml:"max_auth_code_size"`
		MaxServiceCodeSize int `toml:"max_service_code_size"`
		SegmentSize        int `toml:"segment_size"`
		MaxPackageExports  int `toml:"max_package_exports"`
	} `toml:"size_caps"`

	Memory struct {
		PageSize uint32 `toml:"page_size"`
		ZoneSize uint32 `toml:"zone_size"`
	} `toml:"memory"`

	Accumulate struct {
		// InitialPC is the Accumulate wrapper's entry point, configurable
		// rather than hard-coded.
		InitialPC uint64 `toml:"initial_pc"`
	} `toml:"accumulate"`

	Inspect struct {
		ListenAddr string `toml:"listen_addr"`
		Enabled    bool   `toml:"enabled"`
	} `toml:"inspect"`

	Debugger struct {
		HistorySize int  `toml:"history_size"`
		ShowPageMap bool `toml:"show_page_map"`
		ShowGas     bool `toml:"show_gas"`
	} `toml:"debugger"`
}

// DefaultConfig returns the protocol defaults: per-instruction gas model
// and the standard size and gas caps.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Gas.Model = "per_instruction"
	cfg.Gas.MemoryOpCost = 2
	cfg.Gas.UnlikelyCost = 40
	cfg.Gas.AuthGasLimit = 50_000_000
	cfg.Gas.RefineGasLimit = 5_000_000_000

	cfg.SizeCaps.MaxAuthCodeSize = 64_000
	cfg.SizeCaps.MaxServiceCodeSize = 4_000_000
	cfg.SizeCaps.SegmentSize = 4_104
	cfg.SizeCaps.MaxPackageExports = 3_072

	cfg.Memory.PageSize = 4_096
	cfg.Memory.ZoneSize = 65_536

	cfg.Accumulate.InitialPC = 5

	cfg.Inspect.ListenAddr = "127.0.0.1:8787"
	cfg.Inspect.Enabled = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowPageMap = true
	cfg.Debugger.ShowGas = true

	return cfg
}

// DefaultPath is where the node looks for its chainspec file: the
// per-user config directory, or the working directory when the platform
// has none.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "chainspec.toml"
	}
	return filepath.Join(dir, "pvm", "chainspec.toml")
}

// Load reads the chainspec at path, returning the defaults when the file
// does not exist. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("chainspec: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path, creating parent directories as needed. An empty
// path means DefaultPath.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("chainspec: create %s: %w", filepath.Dir(path), err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("chainspec: encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("chainspec: write %s: %w", path, err)
	}
	return nil
}
