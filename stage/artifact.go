// Package stage implements the data transformation stage of the training
// pipeline: it turns validated train/test CSV splits into imputed NumPy
// arrays and a persisted preprocessing object.
package stage

// DataValidationArtifact points at the CSV splits that passed validation.
type DataValidationArtifact struct {
	ValidTrainFilePath string `json:"valid_train_file_path"`
	ValidTestFilePath  string `json:"valid_test_file_path"`
}

// DataTransformationArtifact is the record returned by a successful run.
type DataTransformationArtifact struct {
	TransformedObjectFilePath string `json:"transformed_object_file_path"`
	TransformedTrainFilePath  string `json:"transformed_train_file_path"`
	TransformedTestFilePath   string `json:"transformed_test_file_path"`
}
