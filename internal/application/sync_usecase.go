package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// SyncRequest is everything one sync run needs, assembled once at the CLI boundary.
type SyncRequest struct {
	BaseURL     string
	ProjectID   string
	ProjectPath string
	Credentials Credentials
	AutoCreate  bool
	Poll        PollPolicy
	Notify      bool
}

type SyncUseCase struct {
	log      *zap.Logger
	clients  domain.ClientFactory
	session  *SessionEstablisher
	resolver *ProjectResolver
	uploader *Uploader
	jobs     *JobOrchestrator
	verifier *Verifier
	clock    clockwork.Clock

	store domain.SummaryStore
	note  domain.Notifier

	// A session obtained by password login is kept for later runs so watch
	// mode does not prompt on every change. Any failed run drops it.
	mu     sync.Mutex
	cached *loginSession
}

type loginSession struct {
	baseURL string
	login   string
	sess    domain.Session
}

func NewSyncUseCase(
	l *zap.Logger,
	clients domain.ClientFactory,
	session *SessionEstablisher,
	resolver *ProjectResolver,
	uploader *Uploader,
	jobs *JobOrchestrator,
	verifier *Verifier,
	clock clockwork.Clock,
) *SyncUseCase {
	return &SyncUseCase{
		log: l.Named("sync"), clients: clients, session: session, resolver: resolver,
		uploader: uploader, jobs: jobs, verifier: verifier, clock: clock,
	}
}

// WithStore makes Run persist every summary, successful or not.
func (uc *SyncUseCase) WithStore(s domain.SummaryStore) *SyncUseCase {
	uc.store = s
	return uc
}

func (uc *SyncUseCase) WithNotifier(n domain.Notifier) *SyncUseCase {
	uc.note = n
	return uc
}

// Run executes the pipeline: local inspection, session, project resolution,
// upload, jobs, verification. The first failing step ends the run and its
// error is the single entry of the summary's error list.
func (uc *SyncUseCase) Run(ctx context.Context, req SyncRequest) domain.SyncSummary {
	sum := domain.NewSyncSummary(req.ProjectID, req.ProjectPath)
	sum.StartedAt = uc.clock.Now().UTC()

	if err := uc.run(ctx, req, &sum); err != nil {
		uc.forgetSession()
		sum.AddError(err)
		uc.log.Error("sync failed", zap.String("project", sum.ProjectID), zap.Error(err))
	} else {
		sum.OK = true
		uc.log.Info("sync finished",
			zap.String("project", sum.ProjectID),
			zap.String("uuid", sum.ProjectIDResolved),
			zap.Int("remote_files", sum.RemoteFileCount),
			zap.Bool("has_expected_gpkg", sum.HasExpectedGPKG),
		)
	}
	sum.FinishedAt = uc.clock.Now().UTC()

	if uc.store != nil {
		if err := uc.store.Write(ctx, sum); err != nil {
			uc.log.Error("write summary failed", zap.Error(err))
		}
	}
	if req.Notify && uc.note != nil {
		if err := uc.note.Notify(ctx, notification(sum, req.BaseURL)); err != nil {
			uc.log.Warn("notification failed", zap.Error(err))
		}
	}
	return sum
}

func (uc *SyncUseCase) run(ctx context.Context, req SyncRequest, sum *domain.SyncSummary) error {
	lp, err := uc.uploader.Inspect(req.ProjectPath)
	if err != nil {
		return err
	}
	sum.ProjectFiles = lp.ProjectFiles

	sess, err := uc.establish(ctx, req, sum)
	if err != nil {
		return err
	}
	client := uc.clients(sess)

	if status, err := client.ServerStatus(ctx); err != nil {
		sum.AddWarning(fmt.Errorf("server status: %w", err))
		uc.log.Warn("server status check failed", zap.String("url", req.BaseURL), zap.Error(err))
	} else {
		sum.ServerStatus = &status
	}

	id := domain.ParseProjectIdentifier(req.ProjectID)
	res, err := uc.resolver.Resolve(ctx, client, id, req.AutoCreate)
	if err != nil {
		return err
	}
	project := res.Project
	sum.ProjectIDResolved = project.ID
	sum.Project = &project
	sum.CreatedProject = res.Created
	sum.CreateResponse = res.CreateResponse

	up, err := uc.uploader.Upload(ctx, client, project.ID, lp)
	if err != nil {
		if len(up.Files) > 0 {
			sum.UploadResult = &up
		}
		return err
	}
	sum.UploadResult = &up

	rep, err := uc.jobs.Run(ctx, client, project.ID, req.Poll)
	recordJobs(sum, rep)
	if err != nil {
		return err
	}

	ver := uc.verifier.Verify(ctx, client, project.ID, req.ProjectPath)
	sum.RemoteFileCount = ver.Count
	sum.RemoteFilesSample = ver.Sample
	sum.ExpectedGPKG = ver.Expected
	sum.HasExpectedGPKG = ver.HasExpected
	if ver.Warning != nil {
		sum.AddWarning(ver.Warning)
	}
	return nil
}

// establish reuses the session of an earlier password login for the same
// service and account. Token credentials never touch the cache.
func (uc *SyncUseCase) establish(ctx context.Context, req SyncRequest, sum *domain.SyncSummary) (domain.Session, error) {
	creds := req.Credentials
	if !creds.Token.IsSet() {
		uc.mu.Lock()
		c := uc.cached
		uc.mu.Unlock()
		if c != nil && c.baseURL == req.BaseURL && c.login == creds.LoginID() {
			uc.log.Debug("reusing login session", zap.String("user", c.login))
			return c.sess, nil
		}
	}

	sess, login, err := uc.session.Establish(ctx, req.BaseURL, creds)
	if err != nil {
		return domain.Session{}, err
	}
	if !login.Raw.IsNull() {
		raw := login.Raw
		sum.LoginResult = &raw
	}
	if !creds.Token.IsSet() && sess.Authenticated() {
		uc.mu.Lock()
		uc.cached = &loginSession{baseURL: req.BaseURL, login: creds.LoginID(), sess: sess}
		uc.mu.Unlock()
	}
	return sess, nil
}

func (uc *SyncUseCase) forgetSession() {
	uc.mu.Lock()
	uc.cached = nil
	uc.mu.Unlock()
}

func recordJobs(sum *domain.SyncSummary, rep JobsReport) {
	if rep.Process.Trigger.Kind != "" {
		raw := rep.Process.Trigger.Raw
		sum.ProcessTrigger = &raw
	}
	if rep.Package.Trigger.Kind != "" {
		raw := rep.Package.Trigger.Raw
		sum.PackageTrigger = &raw
	}
	sum.ProcessJob = rep.Process.Outcome
	sum.PackageJob = rep.Package.Outcome
}

// notification links the project page once the project is known. Failed runs
// are urgent.
func notification(s domain.SyncSummary, baseURL string) domain.Notification {
	var n domain.Notification
	if s.Project != nil {
		n.URL = s.Project.WebURL(baseURL)
	}
	if s.OK {
		n.Title = "✅ QFieldCloud sync: ok"
		n.Body = fmt.Sprintf("%s: %d remote files", s.ProjectID, s.RemoteFileCount)
		if !s.HasExpectedGPKG {
			n.Body += " (expected GeoPackage missing)"
		}
		return n
	}
	n.Title = "❌ QFieldCloud sync: failed"
	n.Urgent = true
	n.Body = s.ProjectID
	if len(s.Errors) > 0 {
		n.Body += "\n" + s.Errors[0]
	}
	return n
}
