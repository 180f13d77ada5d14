package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ownerMarker is the path segment that precedes "<owner>/<name>" in project URLs.
const ownerMarker = "a"

// ProjectIdentifier is the project reference supplied by the operator.
type ProjectIdentifier struct {
	Input      string
	Normalized string
	Owner      string
	Name       string
}

// ParseProjectIdentifier normalizes raw and splits it into owner and name.
//
// "https://app.qfield.cloud/a/alice/roads/" and "a/alice/roads" both yield
// owner "alice", name "roads". Anything else is an opaque name without owner.
func ParseProjectIdentifier(raw string) ProjectIdentifier {
	id := ProjectIdentifier{Input: raw, Normalized: NormalizeProjectID(raw)}

	parts := strings.Split(id.Normalized, "/")
	if len(parts) == 3 && parts[0] == ownerMarker && parts[1] != "" && parts[2] != "" {
		id.Owner, id.Name = parts[1], parts[2]
		return id
	}

	id.Name = id.Normalized
	return id
}

// NormalizeProjectID strips whitespace, any scheme://host prefix and surrounding slashes.
func NormalizeProjectID(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "://"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			s = rest[j:]
		} else {
			s = ""
		}
	}
	return strings.Trim(s, "/")
}

// IsUUID reports whether the identifier already is a server-side project id.
func (p ProjectIdentifier) IsUUID() bool {
	_, err := uuid.Parse(p.Normalized)
	return err == nil && len(p.Normalized) == 36
}

func (p ProjectIdentifier) HasOwner() bool { return p.Owner != "" }

// Matches reports whether a listed project is the one this identifier refers to.
func (p ProjectIdentifier) Matches(rp RemoteProject) bool {
	if p.IsUUID() && strings.EqualFold(rp.ID, p.Normalized) {
		return true
	}
	if rp.Name != p.Name {
		return false
	}
	return !p.HasOwner() || rp.Owner == p.Owner
}

func (p ProjectIdentifier) String() string { return p.Normalized }
