package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()

	err := s.RequireFitted("KNNImputer", "Transform")
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	if nf.ModelName != "KNNImputer" || nf.Method != "Transform" {
		t.Errorf("unexpected error fields: %+v", nf)
	}

	s.SetDimensions(10, 100)
	s.SetFitted()
	if err := s.RequireFitted("KNNImputer", "Transform"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.RequireFeatures("KNNImputer.Transform", 10); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	var dim *errors.DimensionError
	if err := s.RequireFeatures("KNNImputer.Transform", 9); !errors.As(err, &dim) {
		t.Errorf("expected DimensionError, got %v", err)
	} else if dim.Expected != 10 || dim.Got != 9 || dim.Axis != 1 {
		t.Errorf("unexpected dimension error: %+v", dim)
	}

	want := ModelState{Fitted: true, NFeatures: 10, NSamples: 100}
	if diff := cmp.Diff(want, s.GetState()); diff != "" {
		t.Errorf("GetState mismatch (-want +got):\n%s", diff)
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("Reset should clear the fitted flag")
	}
}

type persisted struct {
	Name    string
	Weights []float64
	State   *StateManager
}

func TestPersistence_RoundTrip(t *testing.T) {
	state := NewStateManager()
	state.SetDimensions(3, 7)
	state.SetFitted()
	in := persisted{Name: "lr", Weights: []float64{0.5, -1, 2}, State: state}

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := SaveModel(&in, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	var out persisted
	if err := LoadModel(&out, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if diff := cmp.Diff(in, out, cmpopts.IgnoreUnexported(StateManager{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistence_Errors(t *testing.T) {
	var out persisted

	err := LoadModel(&out, filepath.Join(t.TempDir(), "missing.gob"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	err = LoadModelFromReader(&out, bytes.NewBufferString("not gob"))
	var me *errors.ModelError
	if !errors.As(err, &me) {
		t.Errorf("expected ModelError, got %v", err)
	}
}
