package stage

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/YuminosukeSato/netsecml/config"
	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// TimestampLayout names run directories, e.g. 10_19_2026_14_03_59.
const TimestampLayout = "01_02_2006_15_04_05"

const (
	trainFileName         = "train.npy"
	testFileName          = "test.npy"
	finalPreprocessorName = "preprocessor.gob"
	reportDirName         = "reports"
	missingChartFileName  = "missing_values.png"
	metricsTextfileName   = "metrics.prom"
)

// TrainingPipelineConfig locates the artifacts of one pipeline run.
type TrainingPipelineConfig struct {
	PipelineName  string
	Timestamp     string
	ArtifactDir   string // <artifact_dir>/<timestamp>
	FinalModelDir string
}

// NewTrainingPipelineConfig derives the run directory from the configured
// artifact root and now.
func NewTrainingPipelineConfig(cfg config.Config, now time.Time) TrainingPipelineConfig {
	ts := now.Format(TimestampLayout)
	return TrainingPipelineConfig{
		PipelineName:  cfg.PipelineName,
		Timestamp:     ts,
		ArtifactDir:   filepath.Join(cfg.ArtifactDir, ts),
		FinalModelDir: cfg.FinalModelDir,
	}
}

// ImputerParams are the KNNImputer hyperparameters.
type ImputerParams struct {
	NNeighbors   int
	Weights      string
	MissingValue float64
}

// DataTransformationConfig carries every path and parameter the stage uses.
// Empty report paths disable the corresponding report.
type DataTransformationConfig struct {
	DataTransformationDir     string
	TransformedTrainFilePath  string
	TransformedTestFilePath   string
	TransformedObjectFilePath string
	FinalPreprocessorPath     string

	TargetColumn string
	Imputer      ImputerParams

	MissingChartPath string
	MetricsPath      string
}

// NewDataTransformationConfig lays out the stage paths under the run
// directory:
//
//	<run>/data_transformation/transformed/{train,test}.npy
//	<run>/data_transformation/transformed_object/preprocessing.gob
//	<final_model_dir>/preprocessor.gob
func NewDataTransformationConfig(tp TrainingPipelineConfig, cfg config.Config) (DataTransformationConfig, error) {
	missing, err := cfg.Imputer.MissingValue()
	if err != nil {
		return DataTransformationConfig{}, err
	}

	dir := filepath.Join(tp.ArtifactDir, cfg.DataTransformation.DirName)
	c := DataTransformationConfig{
		DataTransformationDir:     dir,
		TransformedTrainFilePath:  filepath.Join(dir, cfg.DataTransformation.TransformedDataDir, trainFileName),
		TransformedTestFilePath:   filepath.Join(dir, cfg.DataTransformation.TransformedDataDir, testFileName),
		TransformedObjectFilePath: filepath.Join(dir, cfg.DataTransformation.TransformedObjectDir, cfg.DataTransformation.ObjectFileName),
		FinalPreprocessorPath:     filepath.Join(tp.FinalModelDir, finalPreprocessorName),
		TargetColumn:              cfg.TargetColumn,
		Imputer: ImputerParams{
			NNeighbors:   cfg.Imputer.NNeighbors,
			Weights:      cfg.Imputer.Weights,
			MissingValue: missing,
		},
	}
	if cfg.Report.Plot {
		c.MissingChartPath = filepath.Join(dir, reportDirName, missingChartFileName)
	}
	if cfg.Report.Metrics {
		c.MetricsPath = filepath.Join(dir, reportDirName, metricsTextfileName)
	}
	return c, c.Validate()
}

// Validate checks that every required path is set and that no two outputs
// collide.
func (c DataTransformationConfig) Validate() error {
	outputs := map[string]string{
		"transformed_train_file_path":  c.TransformedTrainFilePath,
		"transformed_test_file_path":   c.TransformedTestFilePath,
		"transformed_object_file_path": c.TransformedObjectFilePath,
		"final_preprocessor_path":      c.FinalPreprocessorPath,
	}
	seen := make(map[string]string, len(outputs))
	for name, p := range outputs {
		if strings.TrimSpace(p) == "" {
			return errors.NewValidationError(name, "must not be empty", p)
		}
		clean := filepath.Clean(p)
		if other, dup := seen[clean]; dup {
			return errors.NewValidationError(name, "collides with "+other, p)
		}
		seen[clean] = name
	}
	if strings.TrimSpace(c.TargetColumn) == "" {
		return errors.NewValidationError("target_column", "must not be empty", c.TargetColumn)
	}
	return nil
}
