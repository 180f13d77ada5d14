package cli

import (
	"testing"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/davarch/qfc-sync/internal/infrastructure/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncFlags_OverrideConfigOnlyWhenSet(t *testing.T) {
	var f syncFlags
	cmd := &cobra.Command{Use: "sync"}
	f.bind(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--project-id", "a/alice/survey",
		"--project-path", "/data/survey",
		"--token", "flag-token",
		"--poll-seconds", "1",
	}))

	cfg := config.Config{}
	cfg.Cloud.URL = "https://cfg.example/api/v1/"
	cfg.Cloud.Username = "from-config"
	cfg.Sync.WaitTimeout = 90 * time.Second
	cfg.Sync.PollInterval = 5 * time.Second
	cfg.Sync.AutoCreate = true
	cfg.Log.Format = "console"

	require.NoError(t, f.apply(cmd, &cfg))
	req := f.request(cfg)

	assert.Equal(t, "https://cfg.example/api/v1/", req.BaseURL)
	assert.Equal(t, "flag-token", req.Credentials.Token.Value())
	assert.Equal(t, "from-config", req.Credentials.Username)
	assert.True(t, req.AutoCreate)
	assert.Equal(t, 90*time.Second, req.Poll.Timeout)
	assert.Equal(t, time.Second, req.Poll.Interval)
	assert.Equal(t, "a/alice/survey", req.ProjectID)
	assert.Equal(t, "/data/survey", req.ProjectPath)
}

func TestSyncFlags_RejectInvalidPolling(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"zero poll interval", []string{"--poll-seconds", "0"}, "sync.poll_interval"},
		{"negative poll interval", []string{"--poll-seconds", "-3"}, "sync.poll_interval"},
		{"negative wait timeout", []string{"--wait-timeout", "-1"}, "sync.wait_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f syncFlags
			cmd := &cobra.Command{Use: "sync"}
			f.bind(cmd)
			require.NoError(t, cmd.ParseFlags(append([]string{
				"--project-id", "survey",
				"--project-path", "/data/survey",
			}, tc.args...)))

			cfg := config.Config{}
			cfg.Cloud.URL = config.DefaultURL
			cfg.Sync.WaitTimeout = 600 * time.Second
			cfg.Sync.PollInterval = 5 * time.Second
			cfg.Log.Format = "console"

			assert.ErrorContains(t, f.apply(cmd, &cfg), tc.want)
		})
	}
}

func TestRenderReport_Success(t *testing.T) {
	s := domain.NewSyncSummary("a/alice/survey", "/data/survey")
	s.OK = true
	s.ProjectIDResolved = "0b6b7c4e-2f3a-4d5e-8f90-1a2b3c4d5e6f"
	s.UploadResult = &domain.UploadOutcome{Accepted: true, Files: []domain.FileUploadResult{
		{Name: "survey.qgz", Status: domain.FileUploaded},
		{Name: "survey.gpkg", Status: domain.FileUploaded},
	}}
	s.PackageJob = &domain.JobOutcome{ID: "job-2", Kind: domain.JobPackage, OK: true, State: domain.JobOK, Polls: 3}
	s.RemoteFileCount = 4
	s.ExpectedGPKG = "survey.gpkg"
	s.HasExpectedGPKG = true

	out := renderReport(s)

	assert.Contains(t, out, "QFieldCloud sync:")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "2 uploaded, 0 skipped, 0 failed")
	assert.Contains(t, out, "job-2")
	assert.Contains(t, out, "3 polls")
	assert.Contains(t, out, "survey.gpkg")
	assert.Contains(t, out, "present")
}

func TestRenderReport_Failure(t *testing.T) {
	s := domain.NewSyncSummary("survey", "/data/survey")
	s.AddError(&domain.MissingProjectFileError{Path: "/data/survey"})

	out := renderReport(s)

	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, ".qgs/.qgz")
	assert.NotContains(t, out, "remote files")
	assert.NotContains(t, out, "upload")
}
