package stage

import (
	"github.com/YuminosukeSato/netsecml/sklearn/impute"
	"github.com/YuminosukeSato/netsecml/sklearn/pipeline"
)

// ImputerStepName is the name of the single step of the preprocessing object.
const ImputerStepName = "imputer"

// NewTransformerObject builds an unfitted preprocessing pipeline holding a
// single KNNImputer step. It has no side effects.
func NewTransformerObject(p ImputerParams) (*pipeline.Pipeline, error) {
	imp := impute.NewKNNImputer(
		impute.WithNNeighbors(p.NNeighbors),
		impute.WithWeights(p.Weights),
		impute.WithMissingValue(p.MissingValue),
	)
	if err := imp.Validate(); err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Step{Name: ImputerStepName, Transformer: imp})
}
