package domain

import (
	"context"
	"fmt"
	"sync"
)

// MockCloud is a scriptable in-memory CloudClient.
type MockCloud struct {
	mu sync.Mutex

	LoginToken      string
	LoginErr        error
	ServerStatusErr error

	Projects []RemoteProject
	ListErr  error
	// Direct holds projects only reachable through GetProject.
	Direct map[string]RemoteProject

	CreateErr error
	// CreateVisible adds the created project to Projects.
	CreateVisible bool
	// ConflictWinner is added to Projects when CreateErr fires, simulating a concurrent creator.
	ConflictWinner *RemoteProject

	UploadErr error

	Triggers   map[JobKind]JobTriggerResponse
	TriggerErr map[JobKind]error
	// Statuses are returned in order per job id; the last one repeats.
	Statuses map[string][]string
	PollErr  error

	Files    []RemoteFile
	FilesErr error

	Calls   []string
	created int
}

func (m *MockCloud) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// Called reports how many times the named method ran.
func (m *MockCloud) Called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockCloud) Login(_ context.Context, username, _ string) (LoginResult, error) {
	m.record("Login")
	if m.LoginErr != nil {
		return LoginResult{}, m.LoginErr
	}
	raw := Object(Member{Key: "username", Value: String(username)}, Member{Key: "token", Value: String("[REDACTED]")})
	return LoginResult{Token: Secret(m.LoginToken), Raw: raw}, nil
}

func (m *MockCloud) ServerStatus(context.Context) (Value, error) {
	m.record("ServerStatus")
	if m.ServerStatusErr != nil {
		return Value{}, m.ServerStatusErr
	}
	return Object(Member{Key: "database", Value: String("ok")}, Member{Key: "storage", Value: String("ok")}), nil
}

func (m *MockCloud) ListProjects(context.Context) ([]RemoteProject, error) {
	m.record("ListProjects")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RemoteProject, len(m.Projects))
	copy(out, m.Projects)
	return out, nil
}

func (m *MockCloud) GetProject(_ context.Context, id string) (RemoteProject, error) {
	m.record("GetProject")
	if p, ok := m.Direct[id]; ok {
		return p, nil
	}
	return RemoteProject{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
}

func (m *MockCloud) CreateProject(_ context.Context, name, owner string) (RemoteProject, error) {
	m.record("CreateProject")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		if m.ConflictWinner != nil {
			m.Projects = append(m.Projects, *m.ConflictWinner)
		}
		return RemoteProject{}, m.CreateErr
	}
	m.created++
	p := RemoteProject{ID: fmt.Sprintf("00000000-0000-0000-0000-%012d", m.created), Name: name, Owner: owner}
	if m.CreateVisible {
		m.Projects = append(m.Projects, p)
	}
	return p, nil
}

func (m *MockCloud) UploadFiles(_ context.Context, _ string, files []LocalFile, _ UploadOptions) (UploadOutcome, error) {
	m.record("UploadFiles")
	if m.UploadErr != nil {
		return UploadOutcome{Accepted: false}, m.UploadErr
	}
	out := UploadOutcome{Accepted: true}
	for _, f := range files {
		out.Files = append(out.Files, FileUploadResult{Name: f.Name, Size: f.Size, Status: FileUploaded})
	}
	return out, nil
}

func (m *MockCloud) TriggerJob(_ context.Context, _ string, kind JobKind, _ bool) (JobTriggerResponse, error) {
	m.record("TriggerJob")
	if err := m.TriggerErr[kind]; err != nil {
		return JobTriggerResponse{}, err
	}
	if r, ok := m.Triggers[kind]; ok {
		r.Kind = kind
		return r, nil
	}
	id := "job-" + string(kind)
	return JobTriggerResponse{Kind: kind, JobID: id, Started: true, Raw: Object(Member{Key: "id", Value: String(id)})}, nil
}

func (m *MockCloud) JobStatus(_ context.Context, jobID string) (JobStatusReport, error) {
	m.record("JobStatus")
	if m.PollErr != nil {
		return JobStatusReport{}, m.PollErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seq := m.Statuses[jobID]
	if len(seq) == 0 {
		return JobStatusReport{Status: "finished", Raw: Object(Member{Key: "status", Value: String("finished")})}, nil
	}
	st := seq[0]
	if len(seq) > 1 {
		m.Statuses[jobID] = seq[1:]
	}
	return JobStatusReport{Status: st, Raw: Object(Member{Key: "status", Value: String(st)})}, nil
}

func (m *MockCloud) ListRemoteFiles(context.Context, string, bool) ([]RemoteFile, error) {
	m.record("ListRemoteFiles")
	if m.FilesErr != nil {
		return nil, m.FilesErr
	}
	return m.Files, nil
}

type MockSecrets struct {
	Value   string
	Err     error
	Prompts []string
}

func (s *MockSecrets) Secret(_ context.Context, prompt string) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	return s.Value, s.Err
}

type MockNotifier struct {
	Sent []Notification
	Err  error
}

func (n *MockNotifier) Notify(_ context.Context, msg Notification) error {
	n.Sent = append(n.Sent, msg)
	return n.Err
}

type MockStore struct {
	Summaries []SyncSummary
	Err       error
}

func (c *MockStore) Write(ctx context.Context, s SyncSummary) error {
	if c.Err != nil {
		return c.Err
	}
	c.Summaries = append(c.Summaries, s)
	return nil
}
