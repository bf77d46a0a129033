// Package config loads the pipeline configuration from an optional YAML file
// overlaid with NETSEC__ environment variables.
package config

import (
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
	"github.com/YuminosukeSato/netsecml/pkg/log"
)

// EnvPrefix is stripped from environment variables; "__" separates nesting
// levels, e.g. NETSEC__IMPUTER__N_NEIGHBORS=5.
const EnvPrefix = "NETSEC__"

type ImputerConfig struct {
	NNeighbors    int    `koanf:"n_neighbors"`
	Weights       string `koanf:"weights"`
	MissingValues string `koanf:"missing_values"` // "nan" or a number
}

// MissingValue parses MissingValues.
func (c ImputerConfig) MissingValue() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.MissingValues), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, errors.NewValidationError("imputer.missing_values", "must be 'nan' or a finite number", c.MissingValues)
	}
	return v, nil
}

type DataTransformationConfig struct {
	DirName              string `koanf:"dir_name"`
	TransformedDataDir   string `koanf:"transformed_data_dir"`
	TransformedObjectDir string `koanf:"transformed_object_dir"`
	ObjectFileName       string `koanf:"object_file_name"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json|console|cloud
}

type ReportConfig struct {
	Plot    bool `koanf:"plot"`    // missing-value chart
	Metrics bool `koanf:"metrics"` // prometheus textfile
}

type Config struct {
	PipelineName  string `koanf:"pipeline_name"`
	ArtifactDir   string `koanf:"artifact_dir"`
	TargetColumn  string `koanf:"target_column"`
	FinalModelDir string `koanf:"final_model_dir"`

	Imputer            ImputerConfig            `koanf:"imputer"`
	DataTransformation DataTransformationConfig `koanf:"data_transformation"`
	Log                LogConfig                `koanf:"log"`
	Report             ReportConfig             `koanf:"report"`
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// Load merges defaults, the YAML file at path (if present) and environment
// variables, in that order.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return Config{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, errors.Wrapf(err, "failed to load config %s", path)
			}
			log.GetLoggerWithName("config").Debug("Config file not found, using defaults",
				log.ConfigPathKey, path)
		}
	}

	if err := loadEnv(k, envProvider()); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, errors.NewValidationError("config", err.Error(), path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envProvider() koanf.Provider {
	return env.Provider(EnvPrefix, "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
}

func loadEnv(k *koanf.Koanf, p koanf.Provider) error {
	if err := k.Load(p, nil); err != nil {
		return errors.Wrap(err, "failed to load environment overrides")
	}
	return nil
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	cfg, _ := Load("")
	return cfg
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

var defaults = map[string]interface{}{
	"pipeline_name":   "NetworkSecurity",
	"artifact_dir":    "Artifacts",
	"target_column":   "Result",
	"final_model_dir": "final_model",

	"imputer.n_neighbors":    3,
	"imputer.weights":        "uniform",
	"imputer.missing_values": "nan",

	"data_transformation.dir_name":               "data_transformation",
	"data_transformation.transformed_data_dir":   "transformed",
	"data_transformation.transformed_object_dir": "transformed_object",
	"data_transformation.object_file_name":       "preprocessing.gob",

	"log.level":  "info",
	"log.format": "json",

	"report.plot":    false,
	"report.metrics": false,
}

func loadDefaults(k *koanf.Koanf) error {
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return errors.Wrapf(err, "default %s", key)
		}
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	required := map[string]string{
		"pipeline_name":                              c.PipelineName,
		"artifact_dir":                               c.ArtifactDir,
		"target_column":                              c.TargetColumn,
		"final_model_dir":                            c.FinalModelDir,
		"data_transformation.dir_name":               c.DataTransformation.DirName,
		"data_transformation.transformed_data_dir":   c.DataTransformation.TransformedDataDir,
		"data_transformation.transformed_object_dir": c.DataTransformation.TransformedObjectDir,
		"data_transformation.object_file_name":       c.DataTransformation.ObjectFileName,
	}
	for key, v := range required {
		if strings.TrimSpace(v) == "" {
			return errors.NewValidationError(key, "must not be empty", v)
		}
	}

	if c.Imputer.NNeighbors < 1 {
		return errors.NewValidationError("imputer.n_neighbors", "must be at least 1", c.Imputer.NNeighbors)
	}
	switch c.Imputer.Weights {
	case "uniform", "distance":
	default:
		return errors.NewValidationError("imputer.weights", "must be 'uniform' or 'distance'", c.Imputer.Weights)
	}
	if _, err := c.Imputer.MissingValue(); err != nil {
		return err
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidationError("log.level", err.Error(), c.Log.Level)
	}
	switch c.Log.Format {
	case log.FormatJSON, log.FormatConsole, log.FormatCloud:
	default:
		return errors.NewValidationError("log.format", "must be one of json, console, cloud", c.Log.Format)
	}
	return nil
}
