package dataset

import (
	"io"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// WriteCSV writes X with a header row of names to path.
func WriteCSV(path string, names []string, X mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := WriteCSVTo(f, names, X); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", path)
	}
	return nil
}

// WriteCSVTo writes X as CSV to w. Values use the shortest representation
// that round-trips.
func WriteCSVTo(w io.Writer, names []string, X mat.Matrix) error {
	r, c := X.Dims()
	if c != len(names) {
		return errors.NewDimensionError("dataset.WriteCSV", len(names), c, 1)
	}
	if r == 0 {
		return errors.NewModelError("dataset.WriteCSV", "empty data", errors.ErrEmptyData)
	}

	records := make([][]string, 0, r+1)
	records = append(records, append([]string(nil), names...))
	for i := 0; i < r; i++ {
		row := make([]string, c)
		for j := 0; j < c; j++ {
			row[j] = strconv.FormatFloat(X.At(i, j), 'g', -1, 64)
		}
		records = append(records, row)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if err := df.WriteCSV(w); err != nil {
		return errors.Wrap(err, "csv encode")
	}
	return nil
}
