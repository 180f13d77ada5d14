package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProjectID_StripsSchemeAndHost(t *testing.T) {
	bare := NormalizeProjectID("a/alice/roads")

	for _, in := range []string{
		"https://app.qfield.cloud/a/alice/roads",
		"http://app.qfield.cloud/a/alice/roads/",
		"  https://qfc.example.org/a/alice/roads  ",
		"/a/alice/roads/",
	} {
		assert.Equal(t, bare, NormalizeProjectID(in), in)
	}
	assert.Equal(t, "a/alice/roads", bare)
}

func TestParseProjectIdentifier_OwnerAndName(t *testing.T) {
	id := ParseProjectIdentifier("https://app.qfield.cloud/a/alice/roads/")
	assert.Equal(t, "alice", id.Owner)
	assert.Equal(t, "roads", id.Name)
	assert.True(t, id.HasOwner())
}

func TestParseProjectIdentifier_OpaqueName(t *testing.T) {
	for _, in := range []string{"roads", "alice/roads", "b/alice/roads", "a/alice/roads/extra"} {
		id := ParseProjectIdentifier(in)
		assert.False(t, id.HasOwner(), in)
		assert.Equal(t, NormalizeProjectID(in), id.Name, in)
	}
}

func TestProjectIdentifier_Matches(t *testing.T) {
	withOwner := ParseProjectIdentifier("a/alice/roads")
	assert.True(t, withOwner.Matches(RemoteProject{Name: "roads", Owner: "alice"}))
	assert.False(t, withOwner.Matches(RemoteProject{Name: "roads", Owner: "bob"}))

	nameOnly := ParseProjectIdentifier("roads")
	assert.True(t, nameOnly.Matches(RemoteProject{Name: "roads", Owner: "bob"}))
	assert.False(t, nameOnly.Matches(RemoteProject{Name: "rivers", Owner: "bob"}))

	byID := ParseProjectIdentifier("3F2504E0-4F89-11D3-9A0C-0305E82C3301")
	assert.True(t, byID.IsUUID())
	assert.True(t, byID.Matches(RemoteProject{ID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", Name: "x"}))
}

func TestClassifyJobStatus(t *testing.T) {
	assert.Equal(t, JobOK, ClassifyJobStatus("Success"))
	assert.Equal(t, JobOK, ClassifyJobStatus("FINISHED"))
	assert.Equal(t, JobFailed, ClassifyJobStatus("Canceled"))
	assert.Equal(t, JobRunning, ClassifyJobStatus("started"))
	assert.Equal(t, JobUnknown, ClassifyJobStatus(""))
	assert.Equal(t, JobUnknown, ClassifyJobStatus("warming-up"))
	assert.False(t, ClassifyJobStatus("queued").Terminal())
}

func TestRemoteProject_WebURL(t *testing.T) {
	p := RemoteProject{ID: "u-1", Owner: "alice", Name: "roads 2024"}

	assert.Equal(t, "https://app.qfield.cloud/a/alice/roads%202024", p.WebURL("https://app.qfield.cloud/api/v1/"))
	assert.Equal(t, "http://localhost:8000/a/alice/roads%202024", p.WebURL("http://localhost:8000/api/v1"))
	assert.Empty(t, RemoteProject{ID: "u-1"}.WebURL("https://app.qfield.cloud/api/v1/"))
}
