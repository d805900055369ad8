// Package config loads memorychain configuration from CUE.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/memorychain/internal/blob"
	"github.com/roach88/memorychain/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// Environment variables that override file settings.
const (
	EnvDatabase = "MEMORYCHAIN_DB"
	EnvListen   = "MEMORYCHAIN_LISTEN"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "memorychain.cue"

// Config is the decoded configuration.
type Config struct {
	ProgramID string         `json:"program_id"`
	Database  string         `json:"database"`
	Listen    string         `json:"listen"`
	LogLevel  string         `json:"log_level"`
	Reward    RewardConfig   `json:"reward"`
	Archive   *ArchiveConfig `json:"archive,omitempty"`
}

// RewardConfig describes the reward token.
type RewardConfig struct {
	Mint          string `json:"mint"`
	Decimals      uint8  `json:"decimals"`
	InitialSupply uint64 `json:"initial_supply"`
}

// ArchiveConfig selects the off-ledger content archive.
type ArchiveConfig struct {
	Minio *MinioConfig `json:"minio,omitempty"`
}

// MinioConfig holds MinIO connection settings.
type MinioConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
	Region    string `json:"region"`
}

// Default returns the configuration of an empty config file.
func Default() (*Config, error) {
	return Parse(nil, "")
}

// Load reads and validates the config file at path. A missing file is an
// error unless path is DefaultFile, which falls back to the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && path == DefaultFile:
		data = nil
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse unifies CUE source with the schema and decodes it.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) > 0 {
		if filename == "" {
			filename = DefaultFile
		}
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, fmt.Errorf("compile %s: %w", filename, err)
		}
		v = v.Unify(user)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if _, err := cfg.ProgramAddress(); err != nil {
		return nil, err
	}
	if _, _, err := cfg.MintAddress(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
}

// ProgramAddress parses the program id.
func (c *Config) ProgramAddress() (ir.Address, error) {
	addr, err := ir.ParseAddress(c.ProgramID)
	if err != nil {
		return ir.Address{}, fmt.Errorf("program_id: %w", err)
	}
	return addr, nil
}

// MintAddress parses the reward mint. ok is false when no mint is configured.
func (c *Config) MintAddress() (addr ir.Address, ok bool, err error) {
	if c.Reward.Mint == "" {
		return ir.Address{}, false, nil
	}
	addr, err = ir.ParseAddress(c.Reward.Mint)
	if err != nil {
		return ir.Address{}, false, fmt.Errorf("reward.mint: %w", err)
	}
	return addr, true, nil
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// MinioArchive returns the archive settings, or nil if no archive is configured.
func (c *Config) MinioArchive() *blob.MinioConfig {
	if c.Archive == nil || c.Archive.Minio == nil {
		return nil
	}
	m := c.Archive.Minio
	return &blob.MinioConfig{
		Endpoint:  m.Endpoint,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		UseSSL:    m.UseSSL,
		Region:    m.Region,
	}
}
