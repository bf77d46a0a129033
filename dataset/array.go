package dataset

import (
	"io"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// SaveArray writes m to path in NumPy .npy format (float64, C order).
func SaveArray(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := WriteArray(f, m); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", path)
	}
	return nil
}

// WriteArray encodes m as .npy to w.
func WriteArray(w io.Writer, m *mat.Dense) error {
	if m == nil || m.IsEmpty() {
		return errors.NewModelError("dataset.WriteArray", "empty data", errors.ErrEmptyData)
	}
	err := errors.SafeExecute("npy encode", func() error {
		return npyio.Write(w, m)
	})
	if err != nil {
		return errors.Wrap(err, "npy encode")
	}
	return nil
}

// LoadArray reads a two-dimensional float64 .npy file.
func LoadArray(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	m, err := ReadArray(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return m, nil
}

// ReadArray decodes a .npy stream into a matrix.
func ReadArray(r io.Reader) (*mat.Dense, error) {
	var m mat.Dense
	err := errors.SafeExecute("npy decode", func() error {
		return npyio.Read(r, &m)
	})
	if err != nil {
		return nil, errors.NewValueError("dataset.ReadArray", err.Error())
	}
	return &m, nil
}
