// Package dataset reads and writes the tabular data that flows through the
// pipeline: CSV splits via gota dataframes and transformed arrays as NumPy
// .npy files.
package dataset

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// MissingTokens are the cell contents read as a missing value.
var MissingTokens = []string{"", "NA", "NaN", "nan", "null", "<nil>"}

// Frame is a numeric table with named columns. Missing cells hold NaN.
type Frame struct {
	names []string
	data  *mat.Dense
}

// NewFrame builds a Frame from column names and a matrix of matching width.
func NewFrame(names []string, data *mat.Dense) (*Frame, error) {
	if data == nil {
		return nil, errors.NewModelError("dataset.NewFrame", "empty data", errors.ErrEmptyData)
	}
	if _, c := data.Dims(); c != len(names) {
		return nil, errors.NewDimensionError("dataset.NewFrame", len(names), c, 1)
	}
	return &Frame{names: append([]string(nil), names...), data: data}, nil
}

// ReadCSV loads a comma separated file with a header row. Every column is
// parsed as float64.
func ReadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	frame, err := ReadCSVFrom(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return frame, nil
}

// ReadCSVFrom is ReadCSV for an arbitrary reader.
func ReadCSVFrom(r io.Reader) (*Frame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(MissingTokens),
	)
	if df.Err != nil {
		if strings.Contains(df.Err.Error(), "empty DataFrame") {
			return nil, errors.NewModelError("dataset.ReadCSV", "empty data", errors.ErrEmptyData)
		}
		return nil, errors.NewValueError("dataset.ReadCSV", df.Err.Error())
	}

	names := df.Names()
	rows, cols := df.Nrow(), df.Ncol()
	if rows == 0 || cols == 0 {
		return nil, errors.NewModelError("dataset.ReadCSV", "empty data", errors.ErrEmptyData)
	}

	data := mat.NewDense(rows, cols, nil)
	for j, name := range names {
		for i, cell := range df.Col(name).Records() {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.NewValueError("dataset.ReadCSV",
					fmt.Sprintf("column %q row %d: cannot parse %q as a number", name, i, cell))
			}
			data.Set(i, j, v)
		}
	}
	return &Frame{names: names, data: data}, nil
}

// Names returns the column names in file order.
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

// Nrow returns the number of data rows.
func (f *Frame) Nrow() int {
	r, _ := f.data.Dims()
	return r
}

// Ncol returns the number of columns.
func (f *Frame) Ncol() int {
	return len(f.names)
}

// Matrix returns a copy of the frame contents.
func (f *Frame) Matrix() *mat.Dense {
	return mat.DenseCopyOf(f.data)
}

// Index returns the position of a column, or -1.
func (f *Frame) Index(name string) int {
	for i, n := range f.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Has reports whether the frame has a column called name.
func (f *Frame) Has(name string) bool {
	return f.Index(name) >= 0
}

// MissingCounts returns the number of NaN cells per column.
func (f *Frame) MissingCounts() []int {
	r, c := f.data.Dims()
	counts := make([]int, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := f.data.At(i, j); v != v {
				counts[j]++
			}
		}
	}
	return counts
}

// Drop returns a frame without the named column. The frame is returned
// unchanged (as a copy) when the column does not exist.
func (f *Frame) Drop(name string) (*Frame, error) {
	idx := f.Index(name)
	if idx < 0 {
		return &Frame{names: f.Names(), data: f.Matrix()}, nil
	}
	if len(f.names) == 1 {
		return nil, errors.NewValidationError("column", "cannot drop the only column", name)
	}

	r, c := f.data.Dims()
	names := make([]string, 0, c-1)
	data := mat.NewDense(r, c-1, nil)
	for j, n := range f.names {
		if j == idx {
			continue
		}
		dst := len(names)
		names = append(names, n)
		for i := 0; i < r; i++ {
			data.Set(i, dst, f.data.At(i, j))
		}
	}
	return &Frame{names: names, data: data}, nil
}

// SplitTarget separates the target column from the features. Feature
// column order is preserved.
func (f *Frame) SplitTarget(target string) (X *mat.Dense, features []string, y []float64, err error) {
	idx := f.Index(target)
	if idx < 0 {
		return nil, nil, nil, errors.NewValidationError("target_column", "column not found in input data", target)
	}
	if len(f.names) == 1 {
		return nil, nil, nil, errors.NewValidationError("target_column", "input has no feature columns", target)
	}

	y = mat.Col(nil, idx, f.data)
	rest, err := f.Drop(target)
	if err != nil {
		return nil, nil, nil, err
	}
	return rest.data, rest.names, y, nil
}

// AppendColumn returns a new matrix with v as its last column.
func AppendColumn(X mat.Matrix, v []float64) (*mat.Dense, error) {
	r, c := X.Dims()
	if len(v) != r {
		return nil, errors.NewDimensionError("dataset.AppendColumn", r, len(v), 0)
	}
	out := mat.NewDense(r, c+1, nil)
	out.Slice(0, r, 0, c).(*mat.Dense).Copy(X)
	out.SetCol(c, v)
	return out, nil
}
