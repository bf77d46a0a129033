package errors

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestWrapStage_Classification(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here.csv")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "missing file", err: statErr, want: KindIO},
		{name: "validation", err: NewValidationError("target_column", "column not found", "Result"), want: KindSchema},
		{name: "dimension", err: NewDimensionError("Transform", 3, 2, 1), want: KindSchema},
		{name: "value", err: NewValueError("ReadCSV", "bad cell"), want: KindData},
		{name: "empty", err: Wrap(ErrEmptyData, "fit"), want: KindData},
		{name: "not fitted", err: NewNotFittedError("KNNImputer", "Transform"), want: KindModel},
		{name: "panic", err: NewPanicError("op", "boom"), want: KindInternal},
		{name: "plain", err: fmt.Errorf("something"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapStage("data_transformation", "run", tt.err)

			var pe *PipelineError
			if !As(err, &pe) {
				t.Fatalf("expected *PipelineError, got %T", err)
			}
			if pe.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", pe.Kind, tt.want)
			}
			if !Is(err, tt.err) {
				t.Error("cause should be reachable with Is")
			}
			if !strings.Contains(fmt.Sprintf("%+v", err), "pipeline_test.go") {
				t.Error("expected stack trace pointing at the caller")
			}
		})
	}
}

func TestWrapStage_NilAndNoDoubleWrap(t *testing.T) {
	if WrapStage("s", "op", nil) != nil {
		t.Fatal("nil must stay nil")
	}

	inner := NewPipelineError("inference", "predict", KindModel, fmt.Errorf("x"))
	outer := WrapStage("data_transformation", "run", inner)
	if outer != inner {
		t.Error("PipelineError should not be wrapped twice")
	}
	want := "netsecml: inference: predict: model: x"
	if outer.Error() != want {
		t.Errorf("Error() = %q, want %q", outer.Error(), want)
	}
}

func TestGuard(t *testing.T) {
	run := func(fail, explode bool) (err error) {
		defer Guard(&err, "data_transformation", "run")
		if explode {
			panic("kaboom")
		}
		if fail {
			return NewValueError("ReadCSV", "bad cell")
		}
		return nil
	}

	if err := run(false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := run(true, false)
	var pe *PipelineError
	if !As(err, &pe) || pe.Kind != KindData || pe.Op != "run" {
		t.Fatalf("unexpected error: %#v", err)
	}

	err = run(false, true)
	if !As(err, &pe) || pe.Kind != KindInternal {
		t.Fatalf("panic should become an internal PipelineError, got %v", err)
	}
	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Error("panic details should stay in the chain")
	}
}
