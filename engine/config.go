package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/dhamidi/cxg/mwe"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid engine config")

// Config holds the resource limits and policies of a parse.
type Config struct {
	MaxActiveAlternatives int     `yaml:"max_active_alternatives"`
	SoftThresholdRatio    float64 `yaml:"soft_threshold_ratio"`
	MaxStaleness          int     `yaml:"max_staleness"`
	// PreservationStrategy is one of all, last or hybrid.
	PreservationStrategy    string  `yaml:"preservation_strategy"`
	MaxGhostAge             int     `yaml:"max_ghost_age"`
	MaxBacktrackDepth       int     `yaml:"max_backtrack_depth"`
	MinFeatureCompatibility float64 `yaml:"min_feature_compatibility"`
	// LookaheadDefaultConfirm confirms an expression whose lookahead window
	// ran out without a decision; otherwise it is invalidated.
	LookaheadDefaultConfirm bool `yaml:"lookahead_default_confirm"`
	// Verbose enables warnings for resource guards.
	Verbose bool `yaml:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		MaxActiveAlternatives:   100,
		SoftThresholdRatio:      0.8,
		MaxStaleness:            5,
		PreservationStrategy:    string(mwe.PreserveHybrid),
		MaxGhostAge:             3,
		MaxBacktrackDepth:       100,
		MinFeatureCompatibility: 0.5,
		LookaheadDefaultConfirm: true,
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, v))
		}
	}
	positive("max_active_alternatives", c.MaxActiveAlternatives)
	positive("max_staleness", c.MaxStaleness)
	positive("max_ghost_age", c.MaxGhostAge)
	positive("max_backtrack_depth", c.MaxBacktrackDepth)
	if c.SoftThresholdRatio <= 0 || c.SoftThresholdRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: soft_threshold_ratio must be in (0,1], got %g", ErrInvalidConfig, c.SoftThresholdRatio))
	}
	if c.MinFeatureCompatibility < 0 || c.MinFeatureCompatibility > 1 {
		errs = append(errs, fmt.Errorf("%w: min_feature_compatibility must be in [0,1], got %g", ErrInvalidConfig, c.MinFeatureCompatibility))
	}
	if _, err := mwe.ParseStrategy(c.PreservationStrategy); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// Strategy returns the parsed preservation strategy, hybrid when invalid.
func (c Config) Strategy() mwe.Strategy {
	s, err := mwe.ParseStrategy(c.PreservationStrategy)
	if err != nil {
		return mwe.PreserveHybrid
	}
	return s
}

// softLimit is the queue size past which candidates are instantiated in
// priority order.
func (c Config) softLimit() int {
	return int(float64(c.MaxActiveAlternatives) * c.SoftThresholdRatio)
}
