// Package netsecml prepares network security (phishing site) datasets for
// supervised learning and runs persisted models on new feature rows.
//
// The core of the module is the data transformation stage: it reads the
// validated train and test splits, remaps the target labels from {-1, 1} to
// {0, 1}, fits a KNN missing-value imputer on the training features only and
// writes the transformed arrays together with the fitted preprocessing
// object.
//
// # Quick Start
//
// Run the stage from the command line:
//
//	netsec transform --train valid/train.csv --test valid/test.csv --config config.yaml
//
// or from Go:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tp := stage.NewTrainingPipelineConfig(cfg, time.Now())
//	dtc, err := stage.NewDataTransformationConfig(tp, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dt, err := stage.NewDataTransformation(stage.DataValidationArtifact{
//	    ValidTrainFilePath: "valid/train.csv",
//	    ValidTestFilePath:  "valid/test.csv",
//	}, dtc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	artifact, err := dt.Run(ctx)
//
// The artifact names three files: the transformed train and test arrays
// (NumPy .npy, target in the last column) and the gob-encoded preprocessing
// pipeline. The same pipeline is also written to final_model/preprocessor.gob.
//
// # Inference
//
// A fitted preprocessor and a LogisticRegression can be loaded together:
//
//	m, err := inference.LoadNetworkModel("final_model/preprocessor.gob", "final_model/model.gob")
//	yHat, err := m.Predict(X) // Transform only, never refits
//
// # Packages
//
//   - stage: the data transformation stage and its artifacts
//   - sklearn/impute: KNNImputer
//   - sklearn/pipeline: named transformer pipeline
//   - sklearn/linear_model: binary LogisticRegression
//   - inference: NetworkModel (preprocessor + classifier)
//   - preprocessing: target label mapping
//   - dataset: CSV and .npy IO
//   - metrics: binary classification metrics
//   - config: koanf based configuration
//   - core/model: estimator interfaces, state and gob persistence
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Errors
//
// Every failure leaving a stage or the inference wrapper is an
// *errors.PipelineError carrying the stage, the operation and a kind
// (io, schema, data, model, internal). Use errors.As to inspect it.
package netsecml
