package impute

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/core/model"
	"github.com/YuminosukeSato/netsecml/pkg/errors"
	"github.com/YuminosukeSato/netsecml/pkg/log"
)

var nan = math.NaN()

func dense(rows [][]float64) *mat.Dense {
	r, c := len(rows), len(rows[0])
	m := mat.NewDense(r, c, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

func rowsOf(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}

func TestKNNImputer_Transform(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		train [][]float64
		input [][]float64
		want  [][]float64
	}{
		{
			name: "uniform two neighbors",
			opts: []Option{WithNNeighbors(2)},
			train: [][]float64{
				{1, 2, nan},
				{3, 4, 3},
				{nan, 6, 5},
				{8, 8, 7},
			},
			input: [][]float64{
				{1, 2, nan},
				{3, 4, 3},
				{nan, 6, 5},
				{8, 8, 7},
			},
			want: [][]float64{
				{1, 2, 4},
				{3, 4, 3},
				{5.5, 6, 5},
				{8, 8, 7},
			},
		},
		{
			name:  "uniform uses all donors when k exceeds them",
			opts:  []Option{WithNNeighbors(3)},
			train: [][]float64{{1, 10}, {1, 20}, {2, 30}},
			input: [][]float64{{1, nan}},
			want:  [][]float64{{1, 20}},
		},
		{
			name:  "distance weights exact match",
			opts:  []Option{WithNNeighbors(3), WithWeights(WeightsDistance)},
			train: [][]float64{{1, 10}, {1, 20}, {2, 30}},
			input: [][]float64{{1, nan}},
			want:  [][]float64{{1, 15}},
		},
		{
			name:  "nearest tie broken by training row order",
			opts:  []Option{WithNNeighbors(1)},
			train: [][]float64{{0, 7}, {2, 9}},
			input: [][]float64{{1, nan}},
			want:  [][]float64{{1, 7}},
		},
		{
			name:  "no defined distance falls back to column mean",
			opts:  []Option{WithNNeighbors(1)},
			train: [][]float64{{1, nan}, {3, nan}, {nan, 4}},
			input: [][]float64{{nan, 5}},
			want:  [][]float64{{2, 5}},
		},
		{
			name:  "numeric sentinel",
			opts:  []Option{WithNNeighbors(1), WithMissingValue(-999)},
			train: [][]float64{{0, 1}, {10, 2}},
			input: [][]float64{{9, -999}},
			want:  [][]float64{{9, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := NewKNNImputer(tt.opts...)
			if err := imp.Fit(dense(tt.train)); err != nil {
				t.Fatalf("Fit: %v", err)
			}
			got, err := imp.Transform(dense(tt.input))
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if diff := cmp.Diff(tt.want, rowsOf(got), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("Transform mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKNNImputer_DistanceWeights(t *testing.T) {
	imp := NewKNNImputer(WithNNeighbors(3), WithWeights(WeightsDistance))
	if err := imp.Fit(dense([][]float64{{1, 10}, {1, 20}, {2, 30}})); err != nil {
		t.Fatal(err)
	}
	got, err := imp.Transform(dense([][]float64{{0, nan}}))
	if err != nil {
		t.Fatal(err)
	}
	// distances: sqrt(2), sqrt(2), 2*sqrt(2)
	if v := got.At(0, 1); math.Abs(v-18) > 1e-9 {
		t.Errorf("got %v, want 18", v)
	}
}

func TestKNNImputer_EmptyFeature(t *testing.T) {
	provider := log.NewTestLoggerProvider(log.LevelDebug)
	prev := log.GetProvider()
	log.SetProvider(provider)
	defer log.SetProvider(prev)

	imp := NewKNNImputer(WithNNeighbors(3))
	if err := imp.Fit(dense([][]float64{{1, nan}, {2, nan}})); err != nil {
		t.Fatal(err)
	}
	if !provider.Logger().ContainsMessage("feature 1 has no observed values") {
		t.Errorf("expected empty feature warning, got logs: %s", provider.Logger().String())
	}

	got, err := imp.Transform(dense([][]float64{{nan, nan}, {1, nan}}))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{1.5, 0}, {1, 0}}
	if diff := cmp.Diff(want, rowsOf(got)); diff != "" {
		t.Errorf("Transform mismatch (-want +got):\n%s", diff)
	}
	if c := got.(*mat.Dense).RawMatrix().Cols; c != 2 {
		t.Errorf("empty column must be kept, got %d columns", c)
	}
}

func TestKNNImputer_TransformDoesNotMutate(t *testing.T) {
	train := dense([][]float64{{1, 2, nan}, {3, 4, 3}, {nan, 6, 5}, {8, 8, 7}})
	imp := NewKNNImputer(WithNNeighbors(2))
	if err := imp.Fit(train); err != nil {
		t.Fatal(err)
	}
	before := *imp
	beforeTrain := append([]float64(nil), imp.Train...)
	beforeMeans := append([]float64(nil), imp.Means...)

	input := dense([][]float64{{nan, 5, nan}, {2, nan, 4}})
	inputCopy := mat.DenseCopyOf(input)

	first, err := imp.Transform(input)
	if err != nil {
		t.Fatal(err)
	}
	second, err := imp.Transform(input)
	if err != nil {
		t.Fatal(err)
	}

	if !mat.Equal(first, second) {
		t.Error("repeated Transform should be bit-identical")
	}
	if diff := cmp.Diff(rowsOf(inputCopy), rowsOf(input), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("input was modified (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(beforeTrain, imp.Train, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("training copy changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(beforeMeans, imp.Means); diff != "" {
		t.Errorf("means changed (-want +got):\n%s", diff)
	}
	if before.NNeighbors != imp.NNeighbors || before.Weights != imp.Weights {
		t.Error("parameters changed")
	}
}

func TestKNNImputer_Deterministic(t *testing.T) {
	train := dense([][]float64{{0, 1, nan}, {1, nan, 2}, {nan, 1, 2}, {1, 1, 1}, {0, 0, 0}})
	var outputs []mat.Matrix
	for i := 0; i < 2; i++ {
		imp := NewKNNImputer(WithNNeighbors(2))
		out, err := imp.FitTransform(train)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, out)
	}
	if !mat.Equal(outputs[0], outputs[1]) {
		t.Error("FitTransform should be deterministic")
	}
	r, c := outputs[0].Dims()
	if err := errors.CheckMatrix("test", outputs[0], r, c); err != nil {
		t.Errorf("output still has missing values: %v", err)
	}
}

func TestKNNImputer_Errors(t *testing.T) {
	t.Run("not fitted", func(t *testing.T) {
		_, err := NewKNNImputer().Transform(dense([][]float64{{1}}))
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("expected NotFittedError, got %v", err)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		imp := NewKNNImputer()
		if err := imp.Fit(dense([][]float64{{1, 2}, {3, 4}})); err != nil {
			t.Fatal(err)
		}
		_, err := imp.Transform(dense([][]float64{{1, 2, 3}}))
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Errorf("expected DimensionError, got %v", err)
		}
	})

	t.Run("invalid params", func(t *testing.T) {
		for _, imp := range []*KNNImputer{
			NewKNNImputer(WithNNeighbors(0)),
			NewKNNImputer(WithWeights("cosine")),
		} {
			var ve *errors.ValidationError
			if err := imp.Fit(dense([][]float64{{1}})); !errors.As(err, &ve) {
				t.Errorf("%s: expected ValidationError, got %v", imp, err)
			}
		}
	})

	t.Run("empty data", func(t *testing.T) {
		err := NewKNNImputer().Fit(&mat.Dense{})
		if !errors.Is(err, errors.ErrEmptyData) {
			t.Errorf("expected ErrEmptyData, got %v", err)
		}
	})

	t.Run("infinite value", func(t *testing.T) {
		var ve *errors.ValueError
		err := NewKNNImputer().Fit(dense([][]float64{{math.Inf(1)}}))
		if !errors.As(err, &ve) {
			t.Errorf("expected ValueError, got %v", err)
		}
	})
}

func TestKNNImputer_GobRoundTrip(t *testing.T) {
	train := dense([][]float64{{1, 2, nan}, {3, 4, 3}, {nan, 6, 5}, {8, 8, 7}})
	imp := NewKNNImputer(WithNNeighbors(3))
	if err := imp.Fit(train); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := model.SaveModelToWriter(imp, &buf); err != nil {
		t.Fatal(err)
	}
	var loaded KNNImputer
	if err := model.LoadModelFromReader(&loaded, &buf); err != nil {
		t.Fatal(err)
	}

	input := dense([][]float64{{nan, 5, nan}, {2, nan, 4}})
	want, err := imp.Transform(input)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Transform(input)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(want, got) {
		t.Errorf("reloaded imputer differs:\nwant %v\ngot  %v", mat.Formatted(want), mat.Formatted(got))
	}
	if !math.IsNaN(loaded.MissingValue) {
		t.Errorf("MissingValue = %v, want NaN", loaded.MissingValue)
	}
}

func TestNanEuclidean(t *testing.T) {
	isNaN := func(v float64) bool { return math.IsNaN(v) }

	got := nanEuclidean([]float64{3, nan, 4}, []float64{0, 1, 0}, isNaN)
	// present coords 0 and 2: 9 + 16 = 25, scaled by 3/2
	if want := math.Sqrt(1.5 * 25); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %v, want %v", got, want)
	}
	if d := nanEuclidean([]float64{nan, 1}, []float64{1, nan}, isNaN); !math.IsNaN(d) {
		t.Errorf("expected undefined distance, got %v", d)
	}
}
