package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by transport errors for missing remote resources.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is matched by transport errors when a create lost a race.
	ErrAlreadyExists = errors.New("already exists")
)

// Step names used in error messages.
const (
	StepAuth    = "auth"
	StepLocal   = "local"
	StepResolve = "resolve"
	StepUpload  = "upload"
	StepJobs    = "jobs"
	StepVerify  = "verify"
)

type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", StepAuth, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", StepAuth, e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

type LocalPathError struct {
	Path string
	Err  error
}

func (e *LocalPathError) Error() string {
	return fmt.Sprintf("%s: project path not found: %s: %v", StepLocal, e.Path, e.Err)
}

func (e *LocalPathError) Unwrap() error { return e.Err }

type MissingProjectFileError struct {
	Path string
}

func (e *MissingProjectFileError) Error() string {
	return fmt.Sprintf("%s: missing QGIS project file (.qgs/.qgz) in %s; include a project file next to the GeoPackage before syncing",
		StepLocal, e.Path)
}

type ProjectNotFoundError struct {
	ProjectID string
	Err       error
}

func (e *ProjectNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: project not found: %s (auto-create disabled): %v", StepResolve, e.ProjectID, e.Err)
	}
	return fmt.Sprintf("%s: project not found: %s (auto-create disabled)", StepResolve, e.ProjectID)
}

func (e *ProjectNotFoundError) Unwrap() error { return e.Err }

type ProjectCreateError struct {
	ProjectID string
	Err       error
}

func (e *ProjectCreateError) Error() string {
	return fmt.Sprintf("%s: create project %s: %v", StepResolve, e.ProjectID, e.Err)
}

func (e *ProjectCreateError) Unwrap() error { return e.Err }

// ProjectCreateConflictUnresolvedError means the server said the project
// exists but it could not be found in the listing afterwards.
type ProjectCreateConflictUnresolvedError struct {
	ProjectID string
	Err       error
}

func (e *ProjectCreateConflictUnresolvedError) Error() string {
	return fmt.Sprintf("%s: create project %s conflicted and the existing project could not be located: %v",
		StepResolve, e.ProjectID, e.Err)
}

func (e *ProjectCreateConflictUnresolvedError) Unwrap() error { return e.Err }

type UploadError struct {
	ProjectID string
	File      string
	Err       error
}

func (e *UploadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: project %s: file %s: %v", StepUpload, e.ProjectID, e.File, e.Err)
	}
	return fmt.Sprintf("%s: project %s: %v", StepUpload, e.ProjectID, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type JobTriggerError struct {
	ProjectID string
	Kind      JobKind
	Err       error
}

func (e *JobTriggerError) Error() string {
	return fmt.Sprintf("%s: trigger %s job for project %s: %v", StepJobs, e.Kind, e.ProjectID, e.Err)
}

func (e *JobTriggerError) Unwrap() error { return e.Err }

// JobFailedError covers both a failed terminal status and a poll timeout.
// Err is set when polling itself broke off with a transport error.
type JobFailedError struct {
	ProjectID string
	Kind      JobKind
	JobID     string
	Status    string
	TimedOut  bool
	Err       error
}

func (e *JobFailedError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s job %s for project %s: polling failed: %v", StepJobs, e.Kind, e.JobID, e.ProjectID, e.Err)
	case e.TimedOut:
		return fmt.Sprintf("%s: %s job %s for project %s did not finish before the timeout (last status %q)",
			StepJobs, e.Kind, e.JobID, e.ProjectID, e.Status)
	default:
		return fmt.Sprintf("%s: %s job %s for project %s did not complete successfully (status %q)",
			StepJobs, e.Kind, e.JobID, e.ProjectID, e.Status)
	}
}

func (e *JobFailedError) Unwrap() error { return e.Err }

// VerificationWarning never fails a run.
type VerificationWarning struct {
	ProjectID string
	Expected  string
	Err       error
}

func (e *VerificationWarning) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: project %s: list remote files: %v", StepVerify, e.ProjectID, e.Err)
	}
	return fmt.Sprintf("%s: project %s: expected %s not found among remote files", StepVerify, e.ProjectID, e.Expected)
}

func (e *VerificationWarning) Unwrap() error { return e.Err }
