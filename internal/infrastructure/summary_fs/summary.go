package summary_fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/spf13/afero"
)

// FSStore writes the run summary as indented JSON. The file is replaced
// atomically so readers never see a partial document.
type FSStore struct {
	fs   afero.Fs
	path string
}

func New(path string) *FSStore { return NewWithFs(afero.NewOsFs(), path) }

func NewWithFs(fs afero.Fs, path string) *FSStore { return &FSStore{fs: fs, path: path} }

func (s *FSStore) Path() string { return s.path }

func (s *FSStore) Write(_ context.Context, sum domain.SyncSummary) error {
	if s.path == "" {
		return errors.New("summary path is empty")
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(sum); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return s.fs.Rename(tmp, s.path)
}
