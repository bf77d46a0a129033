// Package linear_model provides the binary LogisticRegression classifier
// used downstream of the preprocessing object.
package linear_model

import (
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/core/model"
	"github.com/YuminosukeSato/netsecml/metrics"
	"github.com/YuminosukeSato/netsecml/pkg/errors"
	"github.com/YuminosukeSato/netsecml/pkg/log"
)

func init() {
	gob.Register(&LogisticRegression{})
}

var _ model.Classifier = (*LogisticRegression)(nil)

// LogisticRegression implements binary logistic regression with L2
// regularization, fitted by full-batch gradient descent.
// Labels must be 0 or 1. Weights start at zero, so fitting is deterministic.
type LogisticRegression struct {
	// Hyperparameters
	Penalty      string  // "l2" or "none"
	C            float64 // Inverse regularization strength (1/alpha)
	FitIntercept bool
	MaxIter      int
	Tol          float64

	// Model parameters
	Coef      []float64
	Intercept float64
	NIter     int

	State *model.StateManager
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		Penalty:      "l2",
		C:            1.0,
		FitIntercept: true,
		MaxIter:      100,
		Tol:          1e-4,
		State:        model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.Penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.FitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.MaxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.Tol = tol
	}
}

// Name returns the estimator name used in logs and errors.
func (lr *LogisticRegression) Name() string { return "LogisticRegression" }

func (lr *LogisticRegression) validate() error {
	if lr.Penalty != "l2" && lr.Penalty != "none" {
		return errors.NewValidationError("penalty", "must be 'l2' or 'none'", lr.Penalty)
	}
	if lr.Penalty == "l2" && lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", lr.MaxIter)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	if err := errors.CheckMatrix("LogisticRegression.Fit", X, nSamples, nFeatures); err != nil {
		return err
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValueError("LogisticRegression.Fit",
				fmt.Sprintf("label %g at row %d; expected 0 or 1", v, i))
		}
	}

	if lr.State == nil {
		lr.State = model.NewStateManager()
	}
	weights := make([]float64, nFeatures)
	intercept := 0.0
	baseLearningRate := 1.0

	iter := 0
	for iter < lr.MaxIter {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - y.At(i, 0)
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		if lr.Penalty == "l2" {
			lambda := 1.0 / lr.C
			for j := range weights {
				gradWeights[j] += lambda * weights[j]
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.FitIntercept {
			intercept -= learningRate * gradIntercept
		}
		iter++

		maxGrad := 0.0
		if lr.FitIntercept {
			maxGrad = math.Abs(gradIntercept)
		}
		for _, g := range gradWeights {
			maxGrad = math.Max(maxGrad, math.Abs(g))
		}
		if maxGrad < lr.Tol {
			break
		}
	}

	if err := errors.CheckNumericalStability("LogisticRegression.Fit", append(weights, intercept)); err != nil {
		return err
	}

	lr.Coef = weights
	lr.Intercept = intercept
	lr.NIter = iter
	lr.State.SetDimensions(nFeatures, nSamples)
	lr.State.SetFitted()

	log.GetLoggerWithName("linear_model.logistic").Debug("LogisticRegression fitted",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		"n_iter", iter,
	)
	return nil
}

// decision returns P(y=1) for every row of X.
func (lr *LogisticRegression) decision(method string, X mat.Matrix) ([]float64, error) {
	if lr.State == nil {
		return nil, errors.NewNotFittedError(lr.Name(), method)
	}
	if err := lr.State.RequireFitted(lr.Name(), method); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.State.RequireFeatures("LogisticRegression."+method, nFeatures); err != nil {
		return nil, err
	}
	if nSamples == 0 {
		return nil, errors.NewModelError("LogisticRegression."+method, "empty data", errors.ErrEmptyData)
	}

	probs := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		z := lr.Intercept
		for j := 0; j < nFeatures; j++ {
			z += X.At(i, j) * lr.Coef[j]
		}
		probs[i] = sigmoid(z)
	}
	return probs, nil
}

// Predict returns the predicted label (0 or 1) of every row as (n_samples, 1).
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := lr.decision("Predict", X)
	if err != nil {
		return nil, err
	}
	predictions := mat.NewDense(len(probs), 1, nil)
	for i, p := range probs {
		if p >= 0.5 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns the class probabilities as (n_samples, 2).
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	probs, err := lr.decision("PredictProba", X)
	if err != nil {
		return nil, err
	}
	probas := mat.NewDense(len(probs), 2, nil)
	for i, p := range probs {
		probas.Set(i, 0, 1.0-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	if yRows, _ := y.Dims(); yRows != nSamples {
		return 0, errors.NewDimensionError("LogisticRegression.Score", nSamples, yRows, 0)
	}
	return metrics.Accuracy(
		mat.NewVecDense(nSamples, mat.Col(nil, 0, y)),
		mat.NewVecDense(nSamples, mat.Col(nil, 0, predictions)),
	)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.Penalty,
		"C":             lr.C,
		"fit_intercept": lr.FitIntercept,
		"max_iter":      lr.MaxIter,
		"tol":           lr.Tol,
	}
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
