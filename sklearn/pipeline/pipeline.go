// Package pipeline chains transformers into a single model.Transformer,
// following sklearn.pipeline.Pipeline.
//
// A fitted Pipeline is gob encodable. The concrete transformer types of its
// steps must be registered with encoding/gob (sklearn/impute does so in its
// init).
package pipeline

import (
	"encoding/gob"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/core/model"
	"github.com/YuminosukeSato/netsecml/pkg/errors"
	"github.com/YuminosukeSato/netsecml/pkg/log"
)

func init() {
	gob.Register(&Pipeline{})
}

// Step represents a single named step in the pipeline.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// Pipeline applies its steps in order. FitTransform fits each step on the
// output of the previous one; Transform only ever calls Transform.
type Pipeline struct {
	StepList []Step
	State    *model.StateManager
}

// New creates a new Pipeline with the given steps.
// An empty step list, an empty or duplicate name, or a nil transformer is a
// ValidationError.
//
//	p, err := pipeline.New(pipeline.Step{Name: "imputer", Transformer: impute.NewKNNImputer()})
func New(steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.NewValidationError("steps", "pipeline needs at least one step", 0)
	}
	seen := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		if s.Name == "" {
			return nil, errors.NewValidationError("steps", "step name must not be empty", s.Name)
		}
		if strings.Contains(s.Name, "__") {
			return nil, errors.NewValidationError("steps", "step name must not contain '__'", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, errors.NewValidationError("steps", "step names must be unique", s.Name)
		}
		if s.Transformer == nil {
			return nil, errors.NewValidationError("steps", "step transformer must not be nil", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	return &Pipeline{
		StepList: append([]Step(nil), steps...),
		State:    model.NewStateManager(),
	}, nil
}

// Fit fits every step in order. Each step after the first is fitted on the
// output of the previous one.
func (p *Pipeline) Fit(X mat.Matrix) error {
	_, err := p.fitTransform(X, false)
	return err
}

// FitTransform fits every step and returns the output of the last one.
func (p *Pipeline) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	return p.fitTransform(X, true)
}

func (p *Pipeline) fitTransform(X mat.Matrix, needOutput bool) (mat.Matrix, error) {
	logger := log.GetLoggerWithName("pipeline")
	r, c := X.Dims()

	Xt := X
	for i, step := range p.StepList {
		last := i == len(p.StepList)-1
		if last && !needOutput {
			if err := step.Transformer.Fit(Xt); err != nil {
				return nil, errors.Wrapf(err, "failed to fit step '%s'", step.Name)
			}
			break
		}
		var err error
		Xt, err = step.Transformer.FitTransform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fit_transform step '%s'", step.Name)
		}
		logger.Debug("Pipeline step fitted",
			log.OperationKey, log.OperationFitTransform,
			"step", step.Name,
		)
	}

	if p.State == nil {
		p.State = model.NewStateManager()
	}
	p.State.SetDimensions(c, r)
	p.State.SetFitted()
	return Xt, nil
}

// Transform applies Transform of every step in order. No step is refitted.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if p.State == nil || !p.State.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	Xt := X
	for _, step := range p.StepList {
		var err error
		Xt, err = step.Transformer.Transform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transform at step '%s'", step.Name)
		}
	}
	return Xt, nil
}

// GetParams returns the parameters of every step that exposes them, keyed
// as "<step>__<param>".
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	for _, step := range p.StepList {
		getter, ok := step.Transformer.(model.ParameterGetter)
		if !ok {
			continue
		}
		for k, v := range getter.GetParams() {
			params[step.Name+"__"+k] = v
		}
	}
	return params
}

// NamedSteps returns the steps keyed by name.
func (p *Pipeline) NamedSteps() map[string]model.Transformer {
	named := make(map[string]model.Transformer, len(p.StepList))
	for _, step := range p.StepList {
		named[step.Name] = step.Transformer
	}
	return named
}

// Steps returns a copy of the step list.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.StepList...)
}

// Name returns the estimator name used in logs and errors.
func (p *Pipeline) Name() string { return "Pipeline" }

func (p *Pipeline) String() string {
	parts := make([]string, len(p.StepList))
	for i, step := range p.StepList {
		parts[i] = fmt.Sprintf("('%s', %v)", step.Name, step.Transformer)
	}
	return fmt.Sprintf("Pipeline(steps=[%s])", strings.Join(parts, ", "))
}
