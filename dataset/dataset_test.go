package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

func rowsOf(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}

func TestReadCSVFrom(t *testing.T) {
	input := strings.Join([]string{
		"having_IP_Address,URL_Length,Result",
		"1,-1,-1",
		",0,1",
		"NA,nan,1",
		"-1, 1 ,-1",
	}, "\n")

	f, err := ReadCSVFrom(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSVFrom: %v", err)
	}

	if diff := cmp.Diff([]string{"having_IP_Address", "URL_Length", "Result"}, f.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if f.Nrow() != 4 || f.Ncol() != 3 {
		t.Errorf("dims = (%d, %d), want (4, 3)", f.Nrow(), f.Ncol())
	}

	nan := math.NaN()
	want := [][]float64{{1, -1, -1}, {nan, 0, 1}, {nan, nan, 1}, {-1, 1, -1}}
	if diff := cmp.Diff(want, rowsOf(f.Matrix()), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 1, 0}, f.MissingCounts()); diff != "" {
		t.Errorf("MissingCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVFrom_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, err error)
	}{
		{
			name:  "non numeric cell",
			input: "a,b\n1,x\n",
			check: func(t *testing.T, err error) {
				var ve *errors.ValueError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValueError, got %v", err)
				}
				if !strings.Contains(err.Error(), `column "b" row 0`) {
					t.Errorf("error should name column and row: %v", err)
				}
			},
		},
		{
			name:  "header only",
			input: "a,b\n",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, errors.ErrEmptyData) {
					t.Errorf("expected ErrEmptyData, got %v", err)
				}
			},
		},
		{
			name:  "ragged rows",
			input: "a,b\n1,2\n3\n",
			check: func(t *testing.T, err error) {
				var ve *errors.ValueError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValueError, got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSVFrom(strings.NewReader(tt.input))
			tt.check(t, err)
		})
	}
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestFrame_SplitTarget(t *testing.T) {
	f, err := NewFrame([]string{"a", "Result", "b"}, mat.NewDense(2, 3, []float64{1, -1, 2, 3, 1, 4}))
	if err != nil {
		t.Fatal(err)
	}

	X, features, y, err := f.SplitTarget("Result")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{1, 2}, {3, 4}}, rowsOf(X)); diff != "" {
		t.Errorf("X mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{-1, 1}, y); diff != "" {
		t.Errorf("y mismatch (-want +got):\n%s", diff)
	}

	_, _, _, err = f.SplitTarget("Label")
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for missing target, got %v", err)
	}
}

func TestFrame_Drop(t *testing.T) {
	f, err := NewFrame([]string{"a", "b"}, mat.NewDense(1, 2, []float64{1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	same, err := f.Drop("c")
	if err != nil {
		t.Fatal(err)
	}
	if same.Ncol() != 2 {
		t.Errorf("dropping an unknown column should keep all columns")
	}
	one, err := f.Drop("a")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b"}, one.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := one.Drop("b"); err == nil {
		t.Error("dropping the only column should fail")
	}
}

func TestAppendColumn(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	out, err := AppendColumn(X, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]float64{{1, 2, 0}, {3, 4, 1}}, rowsOf(out)); diff != "" {
		t.Errorf("AppendColumn mismatch (-want +got):\n%s", diff)
	}

	var de *errors.DimensionError
	if _, err := AppendColumn(X, []float64{1}); !errors.As(err, &de) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestArray_RoundTrip(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1.5, -2, 0, 1e-9, 42, 0.25})
	path := filepath.Join(t.TempDir(), "train.npy")

	if err := SaveArray(path, m); err != nil {
		t.Fatalf("SaveArray: %v", err)
	}
	got, err := LoadArray(path)
	if err != nil {
		t.Fatalf("LoadArray: %v", err)
	}
	if !mat.Equal(m, got) {
		t.Errorf("round trip mismatch:\nwant %v\ngot  %v", mat.Formatted(m), mat.Formatted(got))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte("\x93NUMPY")) {
		t.Errorf("missing .npy magic, got %q", raw[:6])
	}
}

func TestArray_Errors(t *testing.T) {
	if err := WriteArray(&bytes.Buffer{}, &mat.Dense{}); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}
	var ve *errors.ValueError
	if _, err := ReadArray(strings.NewReader("not npy")); !errors.As(err, &ve) {
		t.Errorf("expected ValueError, got %v", err)
	}
}

func TestWriteCSVTo(t *testing.T) {
	var buf bytes.Buffer
	X := mat.NewDense(3, 1, []float64{0, 1, 0.5})
	if err := WriteCSVTo(&buf, []string{"prediction"}, X); err != nil {
		t.Fatal(err)
	}
	want := "prediction\n0\n1\n0.5\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}

	f, err := ReadCSVFrom(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(X, f.Matrix()) {
		t.Error("written CSV should read back to the same values")
	}
}
