package model

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// Named is implemented by estimators that report a display name for logs
// and error messages.
type Named interface {
	Name() string
}
