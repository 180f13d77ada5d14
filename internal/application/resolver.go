package application

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/qfc-sync/internal/domain"
	"go.uber.org/zap"
)

var errNotListed = errors.New("project not in listing yet")

// Resolution is the outcome of resolving a project identifier.
type Resolution struct {
	Project        domain.RemoteProject
	Created        bool
	CreateResponse *domain.Value
}

type ProjectResolver struct {
	log *zap.Logger
	// settle bounds how long a freshly created project may take to show up in the listing.
	settle  time.Duration
	initial time.Duration
}

func NewProjectResolver(l *zap.Logger, settle time.Duration) *ProjectResolver {
	return &ProjectResolver{log: l.Named("resolver"), settle: settle, initial: 500 * time.Millisecond}
}

// Resolve maps id to exactly one remote project, creating it when autoCreate
// is set and nothing matches.
func (r *ProjectResolver) Resolve(ctx context.Context, c domain.CloudClient, id domain.ProjectIdentifier, autoCreate bool) (Resolution, error) {
	if p, ok := r.lookup(ctx, c, id); ok {
		r.log.Info("project resolved", zap.String("project", id.String()), zap.String("uuid", p.ID))
		return Resolution{Project: p}, nil
	}

	p, err := c.GetProject(ctx, id.Normalized)
	if err == nil && p.ID != "" {
		r.log.Info("project found by id", zap.String("project", id.String()), zap.String("uuid", p.ID))
		return Resolution{Project: p}, nil
	}

	if !autoCreate {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return Resolution{}, &domain.ProjectNotFoundError{ProjectID: id.String(), Err: err}
		}
		return Resolution{}, &domain.ProjectNotFoundError{ProjectID: id.String()}
	}

	r.log.Info("creating project", zap.String("name", id.Name), zap.String("owner", ownerOrDefault(id.Owner)))
	created, err := c.CreateProject(ctx, id.Name, id.Owner)
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return Resolution{}, &domain.ProjectCreateError{ProjectID: id.String(), Err: err}
		}

		// Someone else created it first; the listing should have it now.
		if p, ok := r.lookup(ctx, c, id); ok {
			r.log.Info("existing project resolved after create conflict", zap.String("uuid", p.ID))
			return Resolution{Project: p}, nil
		}
		return Resolution{}, &domain.ProjectCreateConflictUnresolvedError{ProjectID: id.String(), Err: err}
	}

	res := Resolution{Created: true}
	if !created.Raw.IsNull() {
		raw := created.Raw
		res.CreateResponse = &raw
	}

	if p, ok := r.lookupSettled(ctx, c, id); ok {
		res.Project = p
		return res, nil
	}

	if created.ID == "" {
		if fallback, ok := domain.ExtractIdentifier(created.Raw); ok {
			created.ID = fallback
		}
	}
	if created.ID == "" {
		return Resolution{}, &domain.ProjectCreateError{
			ProjectID: id.String(),
			Err:       errors.New("created project did not appear in the listing and the response carried no id"),
		}
	}
	r.log.Warn("created project not listed yet, using id from create response", zap.String("uuid", created.ID))
	res.Project = created
	return res, nil
}

// lookup scans the full project listing. A listing failure counts as no match.
func (r *ProjectResolver) lookup(ctx context.Context, c domain.CloudClient, id domain.ProjectIdentifier) (domain.RemoteProject, bool) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		r.log.Warn("list projects failed", zap.String("project", id.String()), zap.Error(err))
		return domain.RemoteProject{}, false
	}
	for _, p := range projects {
		if id.Matches(p) {
			return p, true
		}
	}
	return domain.RemoteProject{}, false
}

// lookupSettled retries lookup with backoff until the settle window closes.
func (r *ProjectResolver) lookupSettled(ctx context.Context, c domain.CloudClient, id domain.ProjectIdentifier) (domain.RemoteProject, bool) {
	var found domain.RemoteProject

	op := func() error {
		p, ok := r.lookup(ctx, c, id)
		if !ok {
			return errNotListed
		}
		found = p
		return nil
	}

	var bo backoff.BackOff = &backoff.StopBackOff{}
	if r.settle > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = r.initial
		eb.MaxInterval = 2 * time.Second
		eb.MaxElapsedTime = r.settle
		bo = eb
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return domain.RemoteProject{}, false
	}
	return found, true
}

func ownerOrDefault(owner string) string {
	if owner == "" {
		return "(default)"
	}
	return owner
}
