package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_CarryStepProjectAndCause(t *testing.T) {
	cause := fmt.Errorf("POST /projects/: 400 Bad Request: %w", ErrAlreadyExists)
	err := error(&ProjectCreateConflictUnresolvedError{ProjectID: "a/alice/roads", Err: cause})

	assert.Contains(t, err.Error(), "resolve")
	assert.Contains(t, err.Error(), "a/alice/roads")
	assert.Contains(t, err.Error(), "400 Bad Request")
	assert.True(t, errors.Is(err, ErrAlreadyExists))

	var conflict *ProjectCreateConflictUnresolvedError
	require.ErrorAs(t, fmt.Errorf("sync: %w", err), &conflict)
}

func TestJobFailedError_Messages(t *testing.T) {
	failed := &JobFailedError{ProjectID: "p", Kind: JobPackage, JobID: "j", Status: "failed"}
	assert.Contains(t, failed.Error(), "package job j")

	timedOut := &JobFailedError{ProjectID: "p", Kind: JobProcess, JobID: "j", Status: "running", TimedOut: true}
	assert.Contains(t, timedOut.Error(), "timeout")
}

func TestSecret_Redacts(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "hunter2", s.Value())
	assert.Equal(t, "", Secret("").String())
}
