package domain

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// Session is the authenticated client context. It is never mutated; a login
// produces a new Session.
type Session struct {
	BaseURL string
	Token   Secret
}

func (s Session) Authenticated() bool { return s.Token.IsSet() }

// RemoteProject is a read-only snapshot of a project on the service.
type RemoteProject struct {
	ID    string
	Name  string
	Owner string
	Raw   Value
}

// ProjectFromValue reads the fields we rely on from a project payload.
func ProjectFromValue(v Value) RemoteProject {
	return RemoteProject{
		ID:    v.GetText("id"),
		Name:  v.GetText("name"),
		Owner: v.GetText("owner"),
		Raw:   v,
	}
}

// WebURL is the project page in the web UI of the service whose API lives
// at baseURL, e.g. https://app.qfield.cloud/a/alice/roads.
func (p RemoteProject) WebURL(baseURL string) string {
	if p.Owner == "" || p.Name == "" {
		return ""
	}
	root := strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/api/v1")
	return root + "/a/" + url.PathEscape(p.Owner) + "/" + url.PathEscape(p.Name)
}

func (p RemoteProject) MarshalJSON() ([]byte, error) {
	if !p.Raw.IsNull() {
		return json.Marshal(p.Raw)
	}
	return json.Marshal(map[string]string{"id": p.ID, "name": p.Name, "owner": p.Owner})
}

type JobKind string

const (
	JobProcess JobKind = "process_projectfile"
	JobPackage JobKind = "package"
)

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobOK      JobStatus = "ok"
	JobFailed  JobStatus = "failed"
	JobUnknown JobStatus = "unknown"
)

func (s JobStatus) Terminal() bool { return s == JobOK || s == JobFailed }

// ClassifyJobStatus maps a server status string onto JobStatus, ignoring case.
func ClassifyJobStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "finished", "success", "succeeded", "done", "completed":
		return JobOK
	case "failed", "error", "cancelled", "canceled":
		return JobFailed
	case "pending":
		return JobPending
	case "queued":
		return JobQueued
	case "started", "running":
		return JobRunning
	default:
		return JobUnknown
	}
}

// Job is a triggered server-side job.
type Job struct {
	ID     string
	Kind   JobKind
	Status JobStatus
	Raw    Value
}

// JobTriggerResponse is what a trigger call produced. Started is false when
// the server did not hand back an identifier.
type JobTriggerResponse struct {
	Kind    JobKind
	JobID   string
	Started bool
	Raw     Value
}

// JobStatusReport is a single status poll.
type JobStatusReport struct {
	Status string
	Raw    Value
}

// JobOutcome is the per-job record kept in the summary.
type JobOutcome struct {
	ID       string    `json:"id"`
	Kind     JobKind   `json:"kind"`
	OK       bool      `json:"ok"`
	State    JobStatus `json:"state"`
	TimedOut bool      `json:"timed_out"`
	Polls    int       `json:"polls"`
	Status   Value     `json:"status"`
}

// LoginResult carries the token from a login call. Raw has the token redacted.
type LoginResult struct {
	Token Secret
	Raw   Value
}

// LocalFile is one file of the local project folder.
type LocalFile struct {
	Path string // absolute or fs-rooted path
	Name string // remote name, slash separated, relative to the project root
	Size int64
}

// LocalProject is an inspected local project folder.
type LocalProject struct {
	Root         string
	ProjectFiles []string
	Files        []LocalFile
}

// UploadOptions mirror the transfer flags of the service.
type UploadOptions struct {
	Force        bool
	ThrowOnError bool
	FilterGlob   string
}

type FileUploadStatus string

const (
	FileUploaded FileUploadStatus = "uploaded"
	FileSkipped  FileUploadStatus = "skipped"
	FileFailed   FileUploadStatus = "failed"
)

type FileUploadResult struct {
	Name   string           `json:"name"`
	Size   int64            `json:"size"`
	Status FileUploadStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

type UploadOutcome struct {
	Accepted bool               `json:"accepted"`
	Files    []FileUploadResult `json:"files"`
}

// RemoteFile is one entry of the remote file listing.
type RemoteFile struct {
	Name string
	Path string
	Size int64
	MD5  string
	Raw  Value
}

func RemoteFileFromValue(v Value) RemoteFile {
	f := RemoteFile{
		Name: v.GetText("name"),
		Path: v.GetText("path"),
		MD5:  v.GetText("md5sum"),
		Raw:  v,
	}
	if sz, ok := v.Get("size"); ok && sz.Kind() == KindNumber {
		if n, err := json.Number(sz.NumberValue()).Int64(); err == nil {
			f.Size = n
		}
	}
	return f
}

func (f RemoteFile) MarshalJSON() ([]byte, error) {
	if !f.Raw.IsNull() {
		return json.Marshal(f.Raw)
	}
	return json.Marshal(map[string]any{"name": f.Name, "path": f.Path, "size": f.Size, "md5sum": f.MD5})
}

// SyncSummary is the record of one sync run. Errors and Warnings are
// append-only; the value is not touched after Run returns it.
type SyncSummary struct {
	OK                bool           `json:"ok"`
	ProjectIDInput    string         `json:"project_id_input"`
	ProjectID         string         `json:"project_id"`
	ProjectIDResolved string         `json:"project_id_resolved,omitempty"`
	ProjectPath       string         `json:"project_path"`
	ProjectFiles      []string       `json:"project_files,omitempty"`
	LoginResult       *Value         `json:"login_result,omitempty"`
	ServerStatus      *Value         `json:"server_status,omitempty"`
	Project           *RemoteProject `json:"project,omitempty"`
	CreatedProject    bool           `json:"created_project"`
	CreateResponse    *Value         `json:"created_project_response,omitempty"`
	UploadResult      *UploadOutcome `json:"upload_result"`
	ProcessTrigger    *Value         `json:"process_trigger,omitempty"`
	PackageTrigger    *Value         `json:"package_trigger,omitempty"`
	ProcessJob        *JobOutcome    `json:"process_job"`
	PackageJob        *JobOutcome    `json:"package_job"`
	RemoteFileCount   int            `json:"remote_file_count"`
	RemoteFilesSample []RemoteFile   `json:"remote_files_sample,omitempty"`
	ExpectedGPKG      string         `json:"expected_gpkg,omitempty"`
	HasExpectedGPKG   bool           `json:"has_expected_gpkg"`
	Errors            []string       `json:"errors"`
	Warnings          []string       `json:"warnings"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        time.Time      `json:"finished_at"`
}

func NewSyncSummary(input, path string) SyncSummary {
	return SyncSummary{
		ProjectIDInput: input,
		ProjectID:      NormalizeProjectID(input),
		ProjectPath:    path,
		Errors:         []string{},
		Warnings:       []string{},
	}
}

func (s *SyncSummary) AddError(err error) {
	if err != nil {
		s.Errors = append(s.Errors, err.Error())
	}
}

func (s *SyncSummary) AddWarning(err error) {
	if err != nil {
		s.Warnings = append(s.Warnings, err.Error())
	}
}

// ExitCode is the process exit status for this run.
func (s SyncSummary) ExitCode() int {
	if s.OK && len(s.Errors) == 0 {
		return 0
	}
	return 1
}
