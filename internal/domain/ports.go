package domain

import "context"

// CloudClient is the remote collaboration service, bound to one Session.
type CloudClient interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	ServerStatus(ctx context.Context) (Value, error)
	ListProjects(ctx context.Context) ([]RemoteProject, error)
	GetProject(ctx context.Context, id string) (RemoteProject, error)
	CreateProject(ctx context.Context, name, owner string) (RemoteProject, error)
	UploadFiles(ctx context.Context, projectID string, files []LocalFile, opts UploadOptions) (UploadOutcome, error)
	TriggerJob(ctx context.Context, projectID string, kind JobKind, force bool) (JobTriggerResponse, error)
	JobStatus(ctx context.Context, jobID string) (JobStatusReport, error)
	ListRemoteFiles(ctx context.Context, projectID string, skipMetadata bool) ([]RemoteFile, error)
}

// ClientFactory binds a CloudClient to a session.
type ClientFactory func(s Session) CloudClient

// SecretProvider asks the operator for a secret. It may block indefinitely.
type SecretProvider interface {
	Secret(ctx context.Context, prompt string) (string, error)
}

// Notification is one desktop message about a finished run. URL, when set,
// points at the project page.
type Notification struct {
	Title  string
	Body   string
	URL    string
	Urgent bool
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type SummaryStore interface {
	Write(ctx context.Context, s SyncSummary) error
}
