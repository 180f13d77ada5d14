package application

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Local project conventions.
var ProjectFileExts = []string{".qgs", ".qgz"}

const DataContainerExt = ".gpkg"

func isProjectFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ProjectFileExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

type Uploader struct {
	log *zap.Logger
	fs  afero.Fs
}

func NewUploader(l *zap.Logger, fs afero.Fs) *Uploader {
	return &Uploader{log: l.Named("uploader"), fs: fs}
}

// Inspect checks the local folder and gathers the files to upload. Hidden
// files and directories are skipped.
func (u *Uploader) Inspect(root string) (domain.LocalProject, error) {
	info, err := u.fs.Stat(root)
	if err != nil {
		return domain.LocalProject{}, &domain.LocalPathError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return domain.LocalProject{}, &domain.LocalPathError{Path: root, Err: errors.New("not a directory")}
	}

	lp := domain.LocalProject{Root: root}

	entries, err := afero.ReadDir(u.fs, root)
	if err != nil {
		return domain.LocalProject{}, &domain.LocalPathError{Path: root, Err: err}
	}
	for _, e := range entries {
		if !e.IsDir() && isProjectFile(e.Name()) {
			lp.ProjectFiles = append(lp.ProjectFiles, e.Name())
		}
	}
	sort.Strings(lp.ProjectFiles)
	if len(lp.ProjectFiles) == 0 {
		return domain.LocalProject{}, &domain.MissingProjectFileError{Path: root}
	}

	err = afero.Walk(u.fs, root, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(fi.Name(), ".") {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		lp.Files = append(lp.Files, domain.LocalFile{Path: p, Name: filepath.ToSlash(rel), Size: fi.Size()})
		return nil
	})
	if err != nil {
		return domain.LocalProject{}, &domain.LocalPathError{Path: root, Err: err}
	}

	u.log.Debug("local project inspected",
		zap.String("root", root),
		zap.Strings("project_files", lp.ProjectFiles),
		zap.Int("files", len(lp.Files)),
	)
	return lp, nil
}

// Upload pushes every local file in one bulk transfer, replacing remote
// files of the same name. Any per-file failure aborts the whole call.
func (u *Uploader) Upload(ctx context.Context, c domain.CloudClient, projectID string, lp domain.LocalProject) (domain.UploadOutcome, error) {
	opts := domain.UploadOptions{Force: true, ThrowOnError: true, FilterGlob: "*"}

	files := make([]domain.LocalFile, 0, len(lp.Files))
	for _, f := range lp.Files {
		if ok, _ := path.Match(opts.FilterGlob, path.Base(f.Name)); ok {
			files = append(files, f)
		}
	}

	u.log.Info("uploading", zap.String("project", projectID), zap.String("root", lp.Root), zap.Int("files", len(files)))
	out, err := c.UploadFiles(ctx, projectID, files, opts)
	if err != nil {
		return out, &domain.UploadError{ProjectID: projectID, File: failedFile(out), Err: err}
	}
	if !out.Accepted {
		return out, &domain.UploadError{ProjectID: projectID, File: failedFile(out), Err: errors.New("transfer not accepted")}
	}
	u.log.Info("upload finished", zap.String("project", projectID), zap.Int("files", len(out.Files)))
	return out, nil
}

func failedFile(out domain.UploadOutcome) string {
	for _, f := range out.Files {
		if f.Status == domain.FileFailed {
			return f.Name
		}
	}
	return ""
}
