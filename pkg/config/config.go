// Package config loads and validates the validator node configuration.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/foldnet-project/foldnet/pkg/models"
)

// ValidatorConfig is the full configuration of one validator process.
// Empty strings and a negative box padding mean "not pinned": the sampler
// sweeps those dimensions.
type ValidatorConfig struct {
	// PDBID pins the structure id instead of sampling the pool.
	PDBID string `mapstructure:"pdb_id"`

	ForceField string  `mapstructure:"force_field"`
	WaterModel string  `mapstructure:"water_model"`
	BoxShape   string  `mapstructure:"box_shape"`
	BoxPadding float64 `mapstructure:"box_padding"`

	// SampleSize is how many workers are queried per round.
	SampleSize int `mapstructure:"sample_size"`

	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`

	PoolPath        string `mapstructure:"pool_path"`
	DataDir         string `mapstructure:"data_dir"`
	ScoreDBPath     string `mapstructure:"score_db_path"`
	EventTracerPath string `mapstructure:"event_tracer_path"`

	// Alpha is the score store's EMA smoothing factor.
	Alpha float64 `mapstructure:"alpha"`

	// Seed makes sampling reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`

	EnergyTolerance float64 `mapstructure:"energy_tolerance"`
	TailWindow      int     `mapstructure:"tail_window"`

	// Workers is the membership list the selector draws from.
	Workers []string `mapstructure:"workers"`
}

func Default() ValidatorConfig {
	return ValidatorConfig{
		BoxPadding:      -1, // unpinned
		SampleSize:      10,
		DispatchTimeout: 5 * time.Minute,
		PoolPath:        "pdb_ids.json",
		DataDir:         "data",
		ScoreDBPath:     "scores.db",
		EventTracerPath: "events.log",
		Alpha:           0.1,
		EnergyTolerance: 0.1,
		TailWindow:      10,
	}
}

// Load reads the config file at path (optional) merged over the defaults
// and FOLDNET_* environment variables, then validates the result.
func Load(path string) (ValidatorConfig, error) {
	defaults := Default()

	v := viper.New()
	v.SetDefault("box_padding", defaults.BoxPadding)
	v.SetDefault("sample_size", defaults.SampleSize)
	v.SetDefault("dispatch_timeout", defaults.DispatchTimeout)
	v.SetDefault("pool_path", defaults.PoolPath)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("score_db_path", defaults.ScoreDBPath)
	v.SetDefault("event_tracer_path", defaults.EventTracerPath)
	v.SetDefault("alpha", defaults.Alpha)
	v.SetDefault("energy_tolerance", defaults.EnergyTolerance)
	v.SetDefault("tail_window", defaults.TailWindow)

	v.SetEnvPrefix("FOLDNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ValidatorConfig{}, errors.Wrapf(err, "reading config %s", path)
		}
	}

	var cfg ValidatorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ValidatorConfig{}, errors.Wrap(err, "unmarshalling config")
	}
	if err := cfg.Validate(models.DefaultCompatibilityTable()); err != nil {
		return ValidatorConfig{}, err
	}
	return cfg, nil
}

// Validate fails fast on configuration errors; these are never retried.
func (c ValidatorConfig) Validate(table models.CompatibilityTable) error {
	if c.ForceField != "" {
		if _, ok := table.WaterModelFor(c.ForceField); !ok {
			return errors.Errorf("config: unsupported force field %q", c.ForceField)
		}
	}
	if c.ForceField != "" && c.WaterModel != "" && !table.Compatible(c.ForceField, c.WaterModel) {
		return errors.Errorf("config: force field %q is not compatible with water model %q",
			c.ForceField, c.WaterModel)
	}
	if c.SampleSize <= 0 {
		return errors.Errorf("config: sample size must be positive, got %d", c.SampleSize)
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return errors.Errorf("config: alpha must be in (0, 1], got %f", c.Alpha)
	}
	return nil
}

// ExcludedDimensions lists the hyperparameter dimensions the config pins,
// and thereby removes from the sampler's sweep.
func (c ValidatorConfig) ExcludedDimensions() []string {
	var excluded []string
	if c.ForceField != "" {
		excluded = append(excluded, models.DimForceField)
	}
	if c.WaterModel != "" {
		excluded = append(excluded, models.DimWaterModel)
	}
	if c.BoxShape != "" {
		excluded = append(excluded, models.DimBoxShape)
	}
	if c.BoxPadding >= 0 {
		excluded = append(excluded, models.DimBoxPadding)
	}
	return excluded
}

// PinnedHyperParameters carries the pinned values for the excluded
// dimensions.
func (c ValidatorConfig) PinnedHyperParameters() models.HyperParameters {
	return models.HyperParameters{
		ForceField: c.ForceField,
		WaterModel: c.WaterModel,
		BoxShape:   c.BoxShape,
		BoxPadding: c.BoxPadding,
	}
}
