package application

import (
	"context"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// PollPolicy bounds how long a job may take and how often it is polled.
type PollPolicy struct {
	Timeout  time.Duration
	Interval time.Duration
}

// PollResult is the end of one polling loop. TimedOut is a normal result,
// not an error.
type PollResult struct {
	Job      domain.Job
	OK       bool
	TimedOut bool
	Polls    int
}

func (r PollResult) Outcome() domain.JobOutcome {
	return domain.JobOutcome{
		ID:       r.Job.ID,
		Kind:     r.Job.Kind,
		OK:       r.OK,
		State:    r.Job.Status,
		TimedOut: r.TimedOut,
		Polls:    r.Polls,
		Status:   r.Job.Raw,
	}
}

// JobRun is one job of the sync: its trigger response and, when it was
// started and polled, its outcome.
type JobRun struct {
	Trigger domain.JobTriggerResponse
	Outcome *domain.JobOutcome
}

// JobsReport covers the process and package jobs of one sync.
type JobsReport struct {
	Process JobRun
	Package JobRun
}

type JobOrchestrator struct {
	log   *zap.Logger
	clock clockwork.Clock
}

func NewJobOrchestrator(l *zap.Logger, clock clockwork.Clock) *JobOrchestrator {
	return &JobOrchestrator{log: l.Named("jobs"), clock: clock}
}

// Run triggers both jobs back to back and then polls each in turn. The
// report is filled as far as the run got, also when an error is returned.
func (o *JobOrchestrator) Run(ctx context.Context, c domain.CloudClient, projectID string, p PollPolicy) (JobsReport, error) {
	var rep JobsReport

	proc, err := o.trigger(ctx, c, projectID, domain.JobProcess)
	if err != nil {
		return rep, err
	}
	rep.Process.Trigger = proc

	pkg, err := o.trigger(ctx, c, projectID, domain.JobPackage)
	if err != nil {
		return rep, err
	}
	rep.Package.Trigger = pkg

	for _, run := range []*JobRun{&rep.Process, &rep.Package} {
		if !run.Trigger.Started {
			o.log.Warn("no job id in trigger response, skipping", zap.String("kind", string(run.Trigger.Kind)))
			continue
		}

		res, err := o.Wait(ctx, c, run.Trigger, p)
		out := res.Outcome()
		run.Outcome = &out
		if err != nil {
			return rep, &domain.JobFailedError{
				ProjectID: projectID, Kind: run.Trigger.Kind, JobID: run.Trigger.JobID, Err: err,
			}
		}
		if !res.OK {
			return rep, &domain.JobFailedError{
				ProjectID: projectID,
				Kind:      run.Trigger.Kind,
				JobID:     run.Trigger.JobID,
				Status:    lastStatus(res.Job),
				TimedOut:  res.TimedOut,
			}
		}
	}
	return rep, nil
}

func (o *JobOrchestrator) trigger(ctx context.Context, c domain.CloudClient, projectID string, kind domain.JobKind) (domain.JobTriggerResponse, error) {
	resp, err := c.TriggerJob(ctx, projectID, kind, true)
	if err != nil {
		return domain.JobTriggerResponse{Kind: kind}, &domain.JobTriggerError{ProjectID: projectID, Kind: kind, Err: err}
	}
	resp.Kind = kind
	if !resp.Started {
		if id, ok := domain.ExtractIdentifier(resp.Raw); ok {
			resp.JobID, resp.Started = id, true
		}
	}
	o.log.Info("job triggered", zap.String("kind", string(kind)), zap.String("job", resp.JobID), zap.Bool("started", resp.Started))
	return resp, nil
}

// Wait polls a started job until it reaches a terminal status or the
// timeout passes. Elapsed time is checked before each poll, so the last
// poll can land up to one interval after the deadline. Transport errors
// end the loop immediately.
func (o *JobOrchestrator) Wait(ctx context.Context, c domain.CloudClient, t domain.JobTriggerResponse, p PollPolicy) (PollResult, error) {
	res := PollResult{Job: domain.Job{ID: t.JobID, Kind: t.Kind, Status: domain.JobPending}}
	start := o.clock.Now()

	for o.clock.Since(start) <= p.Timeout {
		report, err := c.JobStatus(ctx, t.JobID)
		if err != nil {
			return res, err
		}
		res.Polls++
		res.Job.Raw = report.Raw
		res.Job.Status = domain.ClassifyJobStatus(report.Status)

		o.log.Debug("job status",
			zap.String("kind", string(t.Kind)),
			zap.String("job", t.JobID),
			zap.String("status", report.Status),
			zap.Int("poll", res.Polls),
		)

		switch res.Job.Status {
		case domain.JobOK:
			res.OK = true
			o.log.Info("job finished", zap.String("kind", string(t.Kind)), zap.String("job", t.JobID))
			return res, nil
		case domain.JobFailed:
			o.log.Warn("job failed", zap.String("kind", string(t.Kind)), zap.String("job", t.JobID), zap.String("status", report.Status))
			return res, nil
		}

		select {
		case <-o.clock.After(p.Interval):
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}

	res.TimedOut = true
	o.log.Warn("job timed out",
		zap.String("kind", string(t.Kind)),
		zap.String("job", t.JobID),
		zap.Duration("timeout", p.Timeout),
		zap.Int("polls", res.Polls),
	)
	return res, nil
}

func lastStatus(j domain.Job) string {
	if s := j.Raw.GetText("status"); s != "" {
		return s
	}
	if s := j.Raw.GetText("state"); s != "" {
		return s
	}
	return string(j.Status)
}
