package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/whtech/woleet-weblibs/internal/hashfile"
	"github.com/whtech/woleet-weblibs/internal/logging"
	"github.com/whtech/woleet-weblibs/internal/woleet"
)

// Config is the on-disk configuration. Every field is optional; Default
// fills the gaps.
type Config struct {
	Log      Log      `yaml:"log"`
	Host     Host     `yaml:"host"`
	Limits   Limits   `yaml:"limits"`
	API      API      `yaml:"api"`
	Manifest Manifest `yaml:"manifest"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Host constrains the runtime the hasher sees, e.g. to force a backend.
type Host struct {
	Secure         bool `yaml:"secure"`
	Native         bool `yaml:"native"`
	Workers        bool `yaml:"workers"`
	WorkerSyncRead bool `yaml:"worker_sync_read"`
	Software       bool `yaml:"software"`
}

type Limits struct {
	NativeMax      int64         `yaml:"native_max"`
	IncrementalMax int64         `yaml:"incremental_max"`
	ChunkSize      int           `yaml:"chunk_size"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
}

type API struct {
	BaseURL  string        `yaml:"base_url"`
	Provider string        `yaml:"provider"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Manifest struct {
	Path      string `yaml:"path"`
	S3URL     string `yaml:"s3_url"`
	S3Profile string `yaml:"s3_profile"`
}

func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Host: Host{
			Secure:         true,
			Native:         true,
			Workers:        true,
			WorkerSyncRead: true,
			Software:       true,
		},
		Limits: Limits{
			NativeMax:      hashfile.NativeMax,
			IncrementalMax: hashfile.IncrementalMax,
			ChunkSize:      hashfile.DefaultChunkSize,
			ProbeTimeout:   hashfile.DefaultProbeTimeout,
		},
		API: API{
			BaseURL:  woleet.DefaultBaseURL,
			Provider: string(woleet.ProviderWoleet),
			Timeout:  30 * time.Second,
		},
		Manifest: Manifest{S3Profile: "default"},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Limits.NativeMax <= 0 || c.Limits.IncrementalMax <= 0 {
		return errors.New("limits must be positive")
	}
	if c.Limits.ChunkSize <= 0 {
		return errors.New("chunk_size must be positive")
	}
	switch woleet.Provider(c.API.Provider) {
	case woleet.ProviderWoleet, woleet.ProviderChainSo, woleet.ProviderBlockcypher:
	default:
		return fmt.Errorf("unknown provider %q", c.API.Provider)
	}
	return nil
}

// HashHost builds the hasher's runtime description.
func (c *Config) HashHost() *hashfile.Host {
	h := hashfile.DefaultHost()
	h.Secure = c.Host.Secure
	if !c.Host.Native {
		h.Digest = nil
	}
	h.Threads = c.Host.Workers
	h.WorkerSyncRead = c.Host.WorkerSyncRead
	h.Software = c.Host.Software
	h.ChunkSize = c.Limits.ChunkSize
	h.ProbeTimeout = c.Limits.ProbeTimeout
	return h
}

func (c *Config) HashLimits() hashfile.Limits {
	return hashfile.Limits{
		NativeMax:      c.Limits.NativeMax,
		IncrementalMax: c.Limits.IncrementalMax,
	}
}
