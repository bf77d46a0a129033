package stage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

type stagedFile struct {
	tmp, dst string
}

// stager writes outputs to temporary files next to their destination and
// moves them into place together on commit. On any failure every staged or
// committed file, and every directory the stager created, is removed.
type stager struct {
	staged      []stagedFile
	committed   []string
	createdDirs []string
}

// stage writes one output through write into a temporary file beside dst.
func (s *stager) stage(dst string, write func(io.Writer) error) error {
	dir := filepath.Dir(dst)
	if err := s.mkdirAll(dir); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to stage %s", dst)
	}
	s.staged = append(s.staged, stagedFile{tmp: f.Name(), dst: dst})

	if err := write(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s", dst)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to sync %s", dst)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", dst)
	}
	return nil
}

// commit renames every staged file onto its destination.
func (s *stager) commit() error {
	for len(s.staged) > 0 {
		f := s.staged[0]
		if err := os.Rename(f.tmp, f.dst); err != nil {
			return errors.Wrapf(err, "failed to commit %s", f.dst)
		}
		s.staged = s.staged[1:]
		s.committed = append(s.committed, f.dst)
	}
	return nil
}

// rollback removes everything the stager produced.
func (s *stager) rollback() {
	for _, f := range s.staged {
		_ = os.Remove(f.tmp)
	}
	for _, p := range s.committed {
		_ = os.Remove(p)
	}
	for i := len(s.createdDirs) - 1; i >= 0; i-- {
		_ = os.Remove(s.createdDirs[i])
	}
	s.staged, s.committed, s.createdDirs = nil, nil, nil
}

// mkdirAll is os.MkdirAll that remembers which directories did not exist.
func (s *stager) mkdirAll(dir string) error {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		s.createdDirs = append(s.createdDirs, missing[i])
	}
	return nil
}
