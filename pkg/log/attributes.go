// Standard attribute keys shared by every stage of the pipeline.
//
// Keys follow a hierarchical naming convention ("data.samples",
// "ml.operation") so that log output can be filtered the same way across
// stages.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "KNNImputer", "Pipeline", "LogisticRegression"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "data_transformation", "inference", "impute"
	ComponentKey = "ml.component"
)

// Pipeline run context
const (
	// RunIDKey is the unique identifier of one pipeline run.
	RunIDKey = "pipeline.run_id"

	// StageKey names the pipeline stage (data_transformation, inference).
	StageKey = "pipeline.stage"

	// PathKey records a file path read or written by a stage.
	PathKey = "io.path"

	// ArtifactKey names the kind of artifact being written
	// (train_array, test_array, preprocessor, final_preprocessor).
	ArtifactKey = "io.artifact"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// MissingKey counts missing cells seen before imputation.
	MissingKey = "data.missing"

	// TargetColumnKey is the name of the label column.
	TargetColumnKey = "data.target_column"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error and Warning Context
const (
	// ErrorKindKey carries the PipelineError kind tag.
	ErrorKindKey = "error.kind"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// ConfigPathKey is the configuration file a run was started with.
	ConfigPathKey = "config.path"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
