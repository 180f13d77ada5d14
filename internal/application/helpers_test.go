package application

import (
	"testing"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	cloud    *domain.MockCloud
	fs       afero.Fs
	secrets  *domain.MockSecrets
	sessions []domain.Session
	uc       *SyncUseCase
}

func newHarness(t *testing.T, cloud *domain.MockCloud) *harness {
	t.Helper()

	h := &harness{cloud: cloud, fs: afero.NewMemMapFs(), secrets: &domain.MockSecrets{}}
	log := zap.NewNop()
	clients := func(s domain.Session) domain.CloudClient {
		h.sessions = append(h.sessions, s)
		return cloud
	}
	clock := clockwork.NewRealClock()

	h.uc = NewSyncUseCase(log, clients,
		NewSessionEstablisher(log, clients, h.secrets),
		NewProjectResolver(log, 0),
		NewUploader(log, h.fs),
		NewJobOrchestrator(log, clock),
		NewVerifier(log),
		clock,
	)
	return h
}

func (h *harness) writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, h.fs.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, afero.WriteFile(h.fs, dir+"/"+n, []byte("content of "+n), 0o644))
	}
}

func tokenRequest(projectID, path string) SyncRequest {
	return SyncRequest{
		BaseURL:     "https://qfc.test/api/v1",
		ProjectID:   projectID,
		ProjectPath: path,
		Credentials: Credentials{Token: "tok"},
		Poll:        PollPolicy{Timeout: 2 * time.Second, Interval: time.Millisecond},
	}
}

func project(id, owner, name string) domain.RemoteProject {
	return domain.RemoteProject{ID: id, Owner: owner, Name: name}
}
