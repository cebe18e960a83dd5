// Package config loads the YAML job configuration of a pipeline run.
//
// A configuration enables any subset of the four jobs (build, sample,
// project, reduce); an absent section disables its job. Fields missing from a
// present section take the defaults of Default*.
//
//	storage:
//	  backend: local
//	  root: ./data
//	build:
//	  input: descriptors/
//	  extension: .sift
//	  method: vlad
//	  vocabularies: [vocab/a.txt, vocab/b.txt]
//	  output: vectors/
//	project:
//	  input: vectors/
//	  extension: .vlad
//	  compact: true
//	  output: projection.txt
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/aggregate"
	"github.com/hupe1980/pandora/codec"
	"gopkg.in/yaml.v3"
)

// Config is a complete pipeline run configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Workers WorkersConfig `yaml:"workers"`
	Log     LogConfig     `yaml:"log"`

	Build   *BuildConfig   `yaml:"build,omitempty"`
	Sample  *SampleConfig  `yaml:"sample,omitempty"`
	Project *ProjectConfig `yaml:"project,omitempty"`
	Reduce  *ReduceConfig  `yaml:"reduce,omitempty"`
}

// StorageConfig selects and configures the artifact store.
type StorageConfig struct {
	// Backend is one of "local", "memory", "s3", "minio".
	Backend string `yaml:"backend"`

	// Root is the directory of the local backend.
	Root string `yaml:"root,omitempty"`

	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`

	// CacheTTL enables a read-through cache when positive.
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`

	// Retries enables retrying transient errors when positive.
	Retries uint64 `yaml:"retries,omitempty"`

	// Compression frames every written artifact.
	Compression codec.Compression `yaml:"compression,omitempty"`
}

// WorkersConfig bounds run-wide resources.
type WorkersConfig struct {
	Max                int   `yaml:"max"`
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes,omitempty"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec,omitempty"`
}

// LogConfig configures the run logger.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// BuildConfig configures the aggregation job.
type BuildConfig struct {
	Input        string           `yaml:"input"`
	Extension    string           `yaml:"extension"`
	Method       aggregate.Method `yaml:"method"`
	Normalize    bool             `yaml:"normalize"`
	Vocabularies []string         `yaml:"vocabularies"`
	Output       string           `yaml:"output"`
}

// SampleConfig configures the training set sampling job.
type SampleConfig struct {
	Input     string  `yaml:"input"`
	Extension string  `yaml:"extension"`
	Ratio     float64 `yaml:"ratio"`
	Seed      int64   `yaml:"seed"`
	Output    string  `yaml:"output"`
}

// ProjectConfig configures the projection fitting job.
type ProjectConfig struct {
	Input     string  `yaml:"input"`
	Extension string  `yaml:"extension"`
	Ratio     float64 `yaml:"ratio"`
	Seed      int64   `yaml:"seed"`
	Whiten    bool    `yaml:"whiten"`
	Compact   bool    `yaml:"compact"`
	Output    string  `yaml:"output"`
}

// ReduceConfig configures the dimensionality reduction job.
type ReduceConfig struct {
	Input      string `yaml:"input"`
	Extension  string `yaml:"extension"`
	Projection string `yaml:"projection"`
	Components int    `yaml:"components"`
	Whiten     bool   `yaml:"whiten"`
	Output     string `yaml:"output"`
	Subspace   string `yaml:"subspace,omitempty"`
}

// DefaultBuild returns the build defaults.
func DefaultBuild() BuildConfig {
	return BuildConfig{Method: aggregate.VLAD, Normalize: true}
}

// DefaultSample returns the sample defaults.
func DefaultSample() SampleConfig {
	return SampleConfig{Ratio: 0.1, Seed: 1}
}

// DefaultProject returns the project defaults.
func DefaultProject() ProjectConfig {
	return ProjectConfig{Ratio: 1.0, Seed: 1}
}

// DefaultReduce returns the reduce defaults.
func DefaultReduce() ReduceConfig {
	return ReduceConfig{Components: 1}
}

// UnmarshalYAML decodes over DefaultBuild.
func (b *BuildConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain BuildConfig
	p := plain(DefaultBuild())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*b = BuildConfig(p)
	return nil
}

// UnmarshalYAML decodes over DefaultSample.
func (s *SampleConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain SampleConfig
	p := plain(DefaultSample())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = SampleConfig(p)
	return nil
}

// UnmarshalYAML decodes over DefaultProject.
func (p *ProjectConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ProjectConfig
	v := plain(DefaultProject())
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = ProjectConfig(v)
	return nil
}

// UnmarshalYAML decodes over DefaultReduce.
func (r *ReduceConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ReduceConfig
	p := plain(DefaultReduce())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = ReduceConfig(p)
	return nil
}

// Default returns a configuration with a local store in the working
// directory and no job enabled.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Backend: "local", Root: "."},
		Workers: WorkersConfig{Max: 1},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, pandora.NewInputError("config.Parse", "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// SlogLevel returns the configured level; unknown names fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Logger builds the configured logger.
func (l LogConfig) Logger() *pandora.Logger {
	if strings.EqualFold(l.Format, "json") {
		return pandora.NewJSONLogger(l.SlogLevel())
	}
	return pandora.NewTextLogger(l.SlogLevel())
}

// Validate reports every invalid field as an *pandora.InputError.
func (c *Config) Validate() error {
	const op = "config.Validate"
	var errs []error

	fail := func(format string, args ...any) {
		errs = append(errs, pandora.NewInputError(op, format, args...))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.Root == "" {
			fail("storage.root is required for the local backend")
		}
	case "memory":
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			fail("storage.bucket is required for the %s backend", c.Storage.Backend)
		}
		if c.Storage.Backend == "minio" && c.Storage.Endpoint == "" {
			fail("storage.endpoint is required for the minio backend")
		}
	default:
		fail("unknown storage.backend %q", c.Storage.Backend)
	}

	if c.Workers.Max < 0 {
		fail("workers.max must be non-negative, got %d", c.Workers.Max)
	}

	if c.Log.Format != "" && !strings.EqualFold(c.Log.Format, "text") && !strings.EqualFold(c.Log.Format, "json") {
		fail("unknown log.format %q", c.Log.Format)
	}

	if c.Build == nil && c.Sample == nil && c.Project == nil && c.Reduce == nil {
		fail("no job enabled")
	}

	if b := c.Build; b != nil {
		if b.Input == "" || b.Output == "" {
			fail("build.input and build.output are required")
		}
		if len(b.Vocabularies) == 0 {
			fail("build.vocabularies must list at least one codebook")
		}
		if _, err := b.Method.MarshalText(); err != nil {
			fail("build.method is invalid")
		}
	}

	if s := c.Sample; s != nil {
		if s.Input == "" || s.Output == "" {
			fail("sample.input and sample.output are required")
		}
		if s.Ratio < 0 || s.Ratio > 1 {
			fail("sample.ratio must be in [0, 1], got %v", s.Ratio)
		}
	}

	if p := c.Project; p != nil {
		if p.Input == "" || p.Output == "" {
			fail("project.input and project.output are required")
		}
		if p.Ratio < 0 || p.Ratio > 1 {
			fail("project.ratio must be in [0, 1], got %v", p.Ratio)
		}
	}

	if r := c.Reduce; r != nil {
		if r.Input == "" || r.Output == "" || r.Projection == "" {
			fail("reduce.input, reduce.output and reduce.projection are required")
		}
		if r.Components < 1 {
			fail("reduce.components must be at least 1, got %d", r.Components)
		}
	}

	return errors.Join(errs...)
}
