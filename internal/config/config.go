// internal/config/config.go
package config

import (
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"kgraph/internal/bloom"
	"kgraph/internal/builder"
	"kgraph/internal/schedule"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Failure policies.
const (
	FailFast   = "fail-fast"
	BestEffort = "best-effort"
)

// Reduction strategies.
const (
	ReduceTree       = "tree"
	ReduceSequential = "sequential"
)

// Config is the full set of run options. Zero values are not meaningful;
// start from Default.
type Config struct {
	K                     int     `yaml:"k"`
	ChunkSize             int     `yaml:"chunk_size"`
	ChunkUnit             string  `yaml:"chunk_unit"`
	FalsePositiveRate     float64 `yaml:"filter_false_positive_rate"`
	ExpectedDistinctKmers int     `yaml:"expected_distinct_kmers"`
	Canonicalize          bool    `yaml:"canonicalize"`

	Promotion       string `yaml:"promotion"`
	TrackProvenance bool   `yaml:"track_provenance"`
	Workers         int    `yaml:"workers"` // 0 = NumCPU
	FailurePolicy   string `yaml:"failure_policy"`
	Reduce          string `yaml:"reduce"`
	MinMultiplicity uint64 `yaml:"min_multiplicity"`
	KeepFilter      bool   `yaml:"keep_filter"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		K:                     31,
		ChunkSize:             1000,
		ChunkUnit:             "sequences",
		FalsePositiveRate:     0.001,
		ExpectedDistinctKmers: 1_000_000,
		Promotion:             "second-sighting",
		FailurePolicy:         FailFast,
		Reduce:                ReduceTree,
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected. The
// result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrInvalidConfig, "%s: %v", path, err)
	}
	return cfg, nil
}

// Validate reports every problem with c. Each problem wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	var result *multierror.Error
	bad := func(format string, args ...any) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, format, args...))
	}
	if c.K <= 0 {
		bad("k must be positive, got %d", c.K)
	}
	if c.ChunkSize <= 0 {
		bad("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if _, err := schedule.ParseUnit(c.ChunkUnit); err != nil {
		bad("%v", err)
	}
	if !(c.FalsePositiveRate > 0 && c.FalsePositiveRate < 1) {
		bad("filter_false_positive_rate must be in (0,1), got %g", c.FalsePositiveRate)
	}
	if c.ExpectedDistinctKmers <= 0 {
		bad("expected_distinct_kmers must be positive, got %d", c.ExpectedDistinctKmers)
	} else if c.FalsePositiveRate > 0 && c.FalsePositiveRate < 1 {
		if err := bloom.CheckParameters(uint(c.ExpectedDistinctKmers), c.FalsePositiveRate); err != nil {
			bad("%v", err)
		}
	}
	if _, err := builder.ParsePromotion(c.Promotion); err != nil {
		bad("%v", err)
	}
	if c.Workers < 0 {
		bad("workers must be >= 0, got %d", c.Workers)
	}
	switch c.FailurePolicy {
	case FailFast, BestEffort:
	default:
		bad("unknown failure_policy %q (want %s|%s)", c.FailurePolicy, FailFast, BestEffort)
	}
	switch c.Reduce {
	case ReduceTree, ReduceSequential:
	default:
		bad("unknown reduce %q (want %s|%s)", c.Reduce, ReduceTree, ReduceSequential)
	}
	return result.ErrorOrNil()
}

// FilterParameters sizes each chunk-local filter.
func (c Config) FilterParameters() (m, h uint) {
	return bloom.EstimateParameters(uint(c.ExpectedDistinctKmers), c.FalsePositiveRate)
}

// BuilderOptions translates c into per-chunk builder options. c must be
// valid.
func (c Config) BuilderOptions() builder.Options {
	m, h := c.FilterParameters()
	p, _ := builder.ParsePromotion(c.Promotion)
	return builder.Options{
		K:               c.K,
		Canonicalize:    c.Canonicalize,
		Promotion:       p,
		TrackProvenance: c.TrackProvenance,
		FilterBits:      m,
		FilterHashes:    h,
	}
}

// Unit returns the parsed chunk unit. c must be valid.
func (c Config) Unit() schedule.Unit {
	u, _ := schedule.ParseUnit(c.ChunkUnit)
	return u
}
