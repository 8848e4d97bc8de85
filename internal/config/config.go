package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FairForge/labelbench/internal/classifier"
	"github.com/FairForge/labelbench/internal/labels"
	"github.com/FairForge/labelbench/internal/loadtest"
	"github.com/FairForge/labelbench/internal/logging"
)

type Config struct {
	Log        logging.LoggerConfig `yaml:"log"`
	Classifier ClassifierConfig     `yaml:"classifier"`
	Sweep      SweepConfig          `yaml:"sweep"`
	Platforms  []PlatformConfig     `yaml:"platforms"`
	Inputs     []InputConfig        `yaml:"inputs"`
	Output     OutputConfig         `yaml:"output"`
	CPUCSV     string               `yaml:"cpu_csv"`
	Status     StatusConfig         `yaml:"status"`
}

type ClassifierConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	FormField string        `yaml:"form_field"`
	Path      string        `yaml:"path"`
}

type SweepConfig struct {
	LoadLevels        []int   `yaml:"load_levels"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unpaced
}

type PlatformConfig struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
}

type InputConfig struct {
	ID       string   `yaml:"id"`
	Expected []string `yaml:"expected"`
}

type OutputConfig struct {
	Dir         string   `yaml:"dir"`
	Gzip        bool     `yaml:"gzip"`        // shorthand for compression: gzip
	Compression string   `yaml:"compression"` // "", gzip or zstd
	S3          S3Config `yaml:"s3"`
}

// Algorithm resolves the compression applied to exported artifacts.
func (o OutputConfig) Algorithm() string {
	if o.Compression == "" && o.Gzip {
		return "gzip"
	}
	return o.Compression
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // S3-compatible providers
}

type StatusConfig struct {
	Addr string `yaml:"addr"` // empty disables the status server
}

// ErrInvalidConfig is matched by every ValidationError.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ValidationError reports the first offending field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // underlying cause, if any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidConfig }

func (e *ValidationError) Unwrap() error { return e.Err }

// Default returns the reference benchmark: four platforms, two images and
// three load levels.
func Default() *Config {
	cfg := &Config{
		Sweep: SweepConfig{LoadLevels: append([]int(nil), loadtest.DefaultLoadLevels...)},
		Platforms: []PlatformConfig{
			{Name: "EC2", Endpoint: "http://3.83.45.12"},
			{Name: "Lambda", Endpoint: "https://rx8wp9i43f.execute-api.us-east-1.amazonaws.com"},
			{Name: "Cloud Run", Endpoint: "https://app2imag-943367134170.us-central1.run.app"},
			{Name: "Google Compute", Endpoint: "http://35.192.222.124"},
		},
		Inputs: []InputConfig{
			{
				ID:       "https://i.pinimg.com/736x/32/57/0a/32570ae14dc027d871d8abb0eed6dc31.jpg",
				Expected: []string{"tree", "mountain", "sky"},
			},
			{
				ID:       "https://cf.ltkcdn.net/family/images/orig/200821-2121x1414-family.jpg",
				Expected: []string{"person", "family", "indoor"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in unset values.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = logging.LevelInfo
	}
	if c.Log.Format == "" {
		c.Log.Format = logging.FormatJSON
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = classifier.DefaultTimeout
	}
	if c.Classifier.FormField == "" {
		c.Classifier.FormField = classifier.DefaultFormField
	}
	if c.Classifier.Path == "" {
		c.Classifier.Path = classifier.DefaultPath
	}
	if len(c.Sweep.LoadLevels) == 0 {
		c.Sweep.LoadLevels = append([]int(nil), loadtest.DefaultLoadLevels...)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "results"
	}
	if c.Output.S3.Region == "" {
		c.Output.S3.Region = "us-east-1"
	}
}

// Validate checks the configuration. It performs no I/O.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return &ValidationError{Field: "log", Reason: err.Error()}
	}
	if c.Classifier.Timeout < 0 {
		return &ValidationError{Field: "classifier.timeout", Reason: "must not be negative"}
	}
	if !strings.HasPrefix(c.Classifier.Path, "/") {
		return &ValidationError{Field: "classifier.path", Reason: "must start with /"}
	}
	if c.Sweep.RequestsPerSecond < 0 {
		return &ValidationError{Field: "sweep.requests_per_second", Reason: "must not be negative"}
	}
	switch c.Output.Algorithm() {
	case "", "gzip", "zstd":
	default:
		return &ValidationError{Field: "output.compression", Reason: fmt.Sprintf("unsupported algorithm %q", c.Output.Compression)}
	}
	if err := loadtest.ValidateLevels(c.Sweep.LoadLevels); err != nil {
		return &ValidationError{Field: "sweep.load_levels", Reason: err.Error(), Err: err}
	}
	if err := loadtest.ValidateTargets(c.Items(), c.PlatformList()); err != nil {
		return &ValidationError{Field: "targets", Reason: err.Error(), Err: err}
	}
	return nil
}

// PlatformList converts the configured platforms.
func (c *Config) PlatformList() []loadtest.Platform {
	out := make([]loadtest.Platform, len(c.Platforms))
	for i, p := range c.Platforms {
		out[i] = loadtest.Platform{Name: p.Name, Endpoint: p.Endpoint}
	}
	return out
}

// Items converts the configured inputs into ground-truth items.
func (c *Config) Items() []labels.Item {
	out := make([]labels.Item, len(c.Inputs))
	for i, in := range c.Inputs {
		out[i] = labels.NewItem(in.ID, in.Expected...)
	}
	return out
}

// ClientConfig converts the classifier section.
func (c *Config) ClientConfig() classifier.Config {
	return classifier.Config{
		Path:      c.Classifier.Path,
		FormField: c.Classifier.FormField,
		Timeout:   c.Classifier.Timeout,
	}
}

// Parse decodes YAML, rejecting unknown fields, then applies defaults,
// environment overrides and validation.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.ApplyDefaults()
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path. An empty path yields Default() with
// environment overrides applied.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := LoadFromEnv(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}
