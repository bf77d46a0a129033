package errors

import (
	"fmt"
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Kind tags the origin of a PipelineError.
type Kind string

const (
	KindIO       Kind = "io"
	KindSchema   Kind = "schema"
	KindData     Kind = "data"
	KindModel    Kind = "model"
	KindInternal Kind = "internal"
)

// PipelineError is the single error type surfaced at every stage boundary.
// Whatever went wrong underneath (I/O, schema mismatch, bad values, a
// recovered panic) is kept as the cause and reachable through Unwrap.
type PipelineError struct {
	Stage string
	Op    string
	Kind  Kind
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("netsecml: %s: %s: %s", e.Stage, e.Op, e.Kind)
	}
	return fmt.Sprintf("netsecml: %s: %s: %s: %v", e.Stage, e.Op, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PipelineError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", e.Stage).
		Str("op", e.Op).
		Str("kind", string(e.Kind)).
		Str("type", "PipelineError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewPipelineError creates a PipelineError with an explicit kind and attaches
// a stack trace starting at the caller.
func NewPipelineError(stage, op string, kind Kind, err error) error {
	return errors.WithStackDepth(&PipelineError{Stage: stage, Op: op, Kind: kind, Err: err}, 1)
}

// WrapStage converts any error into a PipelineError for the given stage.
// nil stays nil and errors that already are PipelineErrors are returned as
// they are, so nested boundaries do not stack wrappers.
func WrapStage(stage, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}
	return errors.WithStackDepth(&PipelineError{Stage: stage, Op: op, Kind: Classify(err), Err: err}, 1)
}

// Guard is meant to be deferred at a public method boundary. It turns a
// panic into a PanicError and wraps whatever error is returned into a
// PipelineError.
//
//	func (d *DataTransformation) Run(ctx context.Context) (_ Artifact, err error) {
//	    defer errors.Guard(&err, "data_transformation", "run")
//	    ...
//	}
func Guard(err *error, stage, op string) {
	if r := recover(); r != nil {
		*err = NewPanicError(stage+"."+op, r)
	}
	if *err == nil {
		return
	}
	var pe *PipelineError
	if errors.As(*err, &pe) {
		return
	}
	*err = errors.WithStack(&PipelineError{Stage: stage, Op: op, Kind: Classify(*err), Err: *err})
}

// Classify maps an arbitrary error onto a Kind.
func Classify(err error) Kind {
	var (
		pe       *PipelineError
		pathErr  *fs.PathError
		dimErr   *DimensionError
		valErr   *ValidationError
		valueErr *ValueError
		numErr   *NumericalInstabilityError
		fitErr   *NotFittedError
		modelErr *ModelError
		panicErr *PanicError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Kind
	case errors.As(err, &pathErr), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return KindIO
	case errors.As(err, &dimErr), errors.As(err, &valErr):
		return KindSchema
	case errors.As(err, &valueErr), errors.As(err, &numErr), errors.Is(err, ErrEmptyData):
		return KindData
	case errors.As(err, &fitErr), errors.As(err, &modelErr):
		return KindModel
	case errors.As(err, &panicErr):
		return KindInternal
	default:
		return KindInternal
	}
}
