package stage

import (
	"bytes"
	"context"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/core/model"
	"github.com/YuminosukeSato/netsecml/dataset"
	"github.com/YuminosukeSato/netsecml/pkg/errors"
	"github.com/YuminosukeSato/netsecml/pkg/log"
	"github.com/YuminosukeSato/netsecml/preprocessing"
)

// StageName tags logs and errors of this stage.
const StageName = "data_transformation"

// DataTransformation runs the data transformation stage for one pair of
// validated splits.
type DataTransformation struct {
	validation   DataValidationArtifact
	config       DataTransformationConfig
	pipelineName string
}

// NewDataTransformation checks the inputs and returns a ready stage.
func NewDataTransformation(validation DataValidationArtifact, cfg DataTransformationConfig) (*DataTransformation, error) {
	if validation.ValidTrainFilePath == "" {
		return nil, errors.NewPipelineError(StageName, "init", errors.KindSchema,
			errors.NewValidationError("valid_train_file_path", "must not be empty", ""))
	}
	if validation.ValidTestFilePath == "" {
		return nil, errors.NewPipelineError(StageName, "init", errors.KindSchema,
			errors.NewValidationError("valid_test_file_path", "must not be empty", ""))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapStage(StageName, "init", err)
	}
	return &DataTransformation{validation: validation, config: cfg}, nil
}

// WithPipelineName sets the pipeline label used in the metrics report.
func (d *DataTransformation) WithPipelineName(name string) *DataTransformation {
	d.pipelineName = name
	return d
}

// split is one CSV split after target separation.
type split struct {
	X        *mat.Dense
	features []string
	y        []float64
	missing  []int
}

// Run reads both splits, fits the preprocessing object on the training
// features only, and writes the transformed arrays and the object.
//
// Nothing is written until every computation has succeeded; if a write
// fails, everything written by this run is removed. Every error is a
// *errors.PipelineError.
func (d *DataTransformation) Run(ctx context.Context) (_ DataTransformationArtifact, err error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := log.GetLoggerWithName(StageName).With(log.RunIDKey, runID, log.StageKey, StageName)
	defer func() {
		if err != nil {
			logger.Error("Data transformation failed",
				log.ErrAttrKey, err,
				log.ErrorKindKey, string(errors.Classify(err)))
		}
	}()
	defer errors.Guard(&err, StageName, "run")

	logger.Info("Starting data transformation",
		log.PathKey, d.validation.ValidTrainFilePath,
		log.TargetColumnKey, d.config.TargetColumn,
	)

	train, err := d.readSplit("read_train", d.validation.ValidTrainFilePath)
	if err != nil {
		return DataTransformationArtifact{}, err
	}
	test, err := d.readSplit("read_test", d.validation.ValidTestFilePath)
	if err != nil {
		return DataTransformationArtifact{}, err
	}
	if err := checkSchema(train.features, test.features); err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "check_schema", err)
	}
	if err := ctx.Err(); err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "read", err)
	}

	preprocessor, err := NewTransformerObject(d.config.Imputer)
	if err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "build_preprocessor", err)
	}
	logger.Info("Initialised preprocessing object", log.HyperParamsKey, preprocessor.String())

	trainX, err := preprocessor.FitTransform(train.X)
	if err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "fit_transform", err)
	}
	testX, err := preprocessor.Transform(test.X)
	if err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "transform", err)
	}
	if err := ctx.Err(); err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "transform", err)
	}

	trainArr, err := dataset.AppendColumn(trainX, train.y)
	if err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "assemble", err)
	}
	testArr, err := dataset.AppendColumn(testX, test.y)
	if err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "assemble", err)
	}

	var object bytes.Buffer
	if err := model.SaveModelToWriter(preprocessor, &object); err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "encode_preprocessor", err)
	}

	if err := d.writeArtifacts(trainArr, testArr, object.Bytes()); err != nil {
		return DataTransformationArtifact{}, errors.WrapStage(StageName, "write_artifacts", err)
	}

	artifact := DataTransformationArtifact{
		TransformedObjectFilePath: d.config.TransformedObjectFilePath,
		TransformedTrainFilePath:  d.config.TransformedTrainFilePath,
		TransformedTestFilePath:   d.config.TransformedTestFilePath,
	}

	stats := runStats{
		TrainRows:     len(train.y),
		TestRows:      len(test.y),
		Features:      len(train.features),
		TrainImputed:  sum(train.missing),
		TestImputed:   sum(test.missing),
		EmptyFeatures: countEmpty(train.missing, len(train.y)),
		Duration:      time.Since(start),
	}
	d.writeReports(logger, train, stats)

	logger.Info("Data transformation completed",
		log.ArtifactKey, artifact.TransformedObjectFilePath,
		log.SamplesKey, stats.TrainRows,
		log.FeaturesKey, stats.Features,
		log.MissingKey, stats.TrainImputed+stats.TestImputed,
		log.DurationMsKey, stats.Duration.Milliseconds(),
	)
	return artifact, nil
}

// readSplit loads a CSV split, separates the target and remaps its labels.
func (d *DataTransformation) readSplit(op, path string) (split, error) {
	frame, err := dataset.ReadCSV(path)
	if err != nil {
		return split{}, errors.WrapStage(StageName, op, err)
	}
	X, features, rawY, err := frame.SplitTarget(d.config.TargetColumn)
	if err != nil {
		return split{}, errors.WrapStage(StageName, op, errors.Wrapf(err, "split target of %s", path))
	}
	y, err := preprocessing.NewBinaryLabelMapper().Map(rawY)
	if err != nil {
		return split{}, errors.WrapStage(StageName, op, errors.Wrapf(err, "map target of %s", path))
	}
	return split{X: X, features: features, y: y, missing: d.countMissing(X)}, nil
}

func (d *DataTransformation) countMissing(X mat.Matrix) []int {
	sentinel := d.config.Imputer.MissingValue
	r, c := X.Dims()
	counts := make([]int, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) || (!math.IsNaN(sentinel) && v == sentinel) {
				counts[j]++
			}
		}
	}
	return counts
}

// checkSchema requires identical feature columns in identical order.
func checkSchema(train, test []string) error {
	if len(train) != len(test) {
		return errors.NewDimensionError("stage.checkSchema", len(train), len(test), 1)
	}
	for i := range train {
		if train[i] != test[i] {
			return errors.NewValidationError("test feature columns",
				"must match the training columns by name and order; column "+train[i]+" expected", test[i])
		}
	}
	return nil
}

// writeArtifacts stages all four outputs and commits them together. The
// preprocessing object is written twice: once for this run and once to the
// fixed final-model location that inference loads from.
func (d *DataTransformation) writeArtifacts(trainArr, testArr *mat.Dense, object []byte) (err error) {
	s := &stager{}
	defer func() {
		if err != nil {
			s.rollback()
		}
	}()

	writeBytes := func(w io.Writer) error {
		_, err := w.Write(object)
		return err
	}
	if err := s.stage(d.config.TransformedTrainFilePath, func(w io.Writer) error {
		return dataset.WriteArray(w, trainArr)
	}); err != nil {
		return err
	}
	if err := s.stage(d.config.TransformedTestFilePath, func(w io.Writer) error {
		return dataset.WriteArray(w, testArr)
	}); err != nil {
		return err
	}
	if err := s.stage(d.config.TransformedObjectFilePath, writeBytes); err != nil {
		return err
	}
	if err := s.stage(d.config.FinalPreprocessorPath, writeBytes); err != nil {
		return err
	}
	return s.commit()
}

// writeReports produces the optional reports. Their failures never fail
// the run.
func (d *DataTransformation) writeReports(logger log.Logger, train split, stats runStats) {
	if p := d.config.MissingChartPath; p != "" {
		if err := writeMissingChart(p, train.features, train.missing); err != nil {
			logger.Warn("Missing value chart not written", log.PathKey, p, log.ErrAttrKey, err)
		} else {
			logger.Debug("Missing value chart written", log.PathKey, p)
		}
	}
	if p := d.config.MetricsPath; p != "" {
		if err := writeMetrics(p, d.pipelineName, stats); err != nil {
			logger.Warn("Metrics textfile not written", log.PathKey, p, log.ErrAttrKey, err)
		} else {
			logger.Debug("Metrics textfile written", log.PathKey, p)
		}
	}
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func countEmpty(missing []int, rows int) int {
	n := 0
	for _, m := range missing {
		if m == rows {
			n++
		}
	}
	return n
}
