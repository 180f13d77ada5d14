package application

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/davarch/qfc-sync/internal/domain"
	"go.uber.org/zap"
)

const remoteSampleSize = 20

// Verification is informational; Warning is set when the listing failed or
// the expected data container is missing.
type Verification struct {
	Count       int
	Expected    string
	HasExpected bool
	Sample      []domain.RemoteFile
	Warning     *domain.VerificationWarning
}

type Verifier struct {
	log *zap.Logger
}

func NewVerifier(l *zap.Logger) *Verifier { return &Verifier{log: l.Named("verifier")} }

// ExpectedArtifact is the data container name derived from the local folder.
func ExpectedArtifact(localPath string) string {
	return filepath.Base(filepath.Clean(localPath)) + DataContainerExt
}

// Verify never fails the run.
func (v *Verifier) Verify(ctx context.Context, c domain.CloudClient, projectID, localPath string) Verification {
	out := Verification{Expected: ExpectedArtifact(localPath)}

	files, err := c.ListRemoteFiles(ctx, projectID, false)
	if err != nil {
		out.Warning = &domain.VerificationWarning{ProjectID: projectID, Expected: out.Expected, Err: err}
		v.log.Warn("list remote files failed", zap.String("project", projectID), zap.Error(err))
		return out
	}

	out.Count = len(files)
	if len(files) > remoteSampleSize {
		out.Sample = files[:remoteSampleSize]
	} else {
		out.Sample = files
	}

	want := strings.ToLower(out.Expected)
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f.Name), want) || strings.HasSuffix(strings.ToLower(f.Path), want) {
			out.HasExpected = true
			break
		}
	}
	if !out.HasExpected {
		out.Warning = &domain.VerificationWarning{ProjectID: projectID, Expected: out.Expected}
	}

	v.log.Info("remote files verified",
		zap.String("project", projectID),
		zap.Int("count", out.Count),
		zap.String("expected", out.Expected),
		zap.Bool("present", out.HasExpected),
	)
	return out
}
