package application

import (
	"context"
	"errors"
	"testing"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInspect_MissingFolder(t *testing.T) {
	u := NewUploader(zap.NewNop(), afero.NewMemMapFs())

	_, err := u.Inspect("/nowhere")
	var pathErr *domain.LocalPathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "/nowhere", pathErr.Path)
}

func TestInspect_RequiresProjectFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/data/data.gpkg", []byte("x"), 0o644))
	u := NewUploader(zap.NewNop(), fs)

	_, err := u.Inspect("/work/data")
	var missing *domain.MissingProjectFileError
	require.ErrorAs(t, err, &missing)
}

func TestInspect_CollectsFilesAndSkipsHidden(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"B.QGZ", "a.qgs", "data.gpkg", "DCIM/photo.jpg", ".git/config", ".hidden"} {
		require.NoError(t, afero.WriteFile(fs, "/work/data/"+name, []byte("1234"), 0o644))
	}
	u := NewUploader(zap.NewNop(), fs)

	lp, err := u.Inspect("/work/data")
	require.NoError(t, err)
	assert.Equal(t, []string{"B.QGZ", "a.qgs"}, lp.ProjectFiles)

	names := []string{}
	for _, f := range lp.Files {
		names = append(names, f.Name)
		assert.EqualValues(t, 4, f.Size)
	}
	assert.ElementsMatch(t, []string{"B.QGZ", "a.qgs", "data.gpkg", "DCIM/photo.jpg"}, names)
}

func TestUpload_WrapsTransferFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/data/project.qgz", []byte("x"), 0o644))
	u := NewUploader(zap.NewNop(), fs)
	lp, err := u.Inspect("/work/data")
	require.NoError(t, err)

	cause := errors.New("project.qgz: 413 Request Entity Too Large")
	_, err = u.Upload(context.Background(), &domain.MockCloud{UploadErr: cause}, "p1", lp)
	var upErr *domain.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "p1", upErr.ProjectID)
	assert.ErrorIs(t, err, cause)
}

func TestUpload_Accepted(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/data/project.qgz", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/data/data.gpkg", []byte("xy"), 0o644))
	u := NewUploader(zap.NewNop(), fs)
	lp, err := u.Inspect("/work/data")
	require.NoError(t, err)

	out, err := u.Upload(context.Background(), &domain.MockCloud{}, "p1", lp)
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.Len(t, out.Files, 2)
}
