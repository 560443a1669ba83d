package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/bookings"
	"rentdesk/internal/app/middleware"
)

var ErrEmptySchedule = errors.New("jobs: empty cron schedule")

// RecomputeJob reprices every open booking as the system principal.
type RecomputeJob struct {
	Bus     commands.Bus
	Force   bool
	Timeout time.Duration
	Logger  *slog.Logger
}

func (j *RecomputeJob) Run() {
	ctx := context.Background()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if _, err := j.RunOnce(ctx); err != nil {
		j.logger().Error("scheduled recompute failed", "error", err)
	}
}

func (j *RecomputeJob) RunOnce(ctx context.Context) (*dto.RecomputeSummary, error) {
	ctx = middleware.WithPrincipal(ctx, middleware.PrincipalSystem)
	started := time.Now()
	summary, err := commands.Dispatch[bookings.RecomputeAllCommand, *dto.RecomputeSummary](ctx, j.Bus, bookings.RecomputeAllCommand{Force: j.Force})
	if err != nil {
		return nil, err
	}
	if summary != nil {
		j.logger().Info("scheduled recompute finished",
			"scanned", summary.Scanned,
			"updated", summary.Updated,
			"drifted", summary.Drifted,
			"failed", summary.Failed,
			"duration", time.Since(started),
		)
	}
	return summary, nil
}

func (j *RecomputeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// Scheduler runs jobs on cron schedules in UTC; a run still in progress suppresses the next tick.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger.With("component", "cron")}
	return &Scheduler{cron: cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)}
}

// Add registers job under a standard five-field spec or a descriptor such as "@hourly".
func (s *Scheduler) Add(spec string, job cron.Job) (cron.EntryID, error) {
	if spec == "" {
		return 0, ErrEmptySchedule
	}
	return s.cron.AddJob(spec, job)
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// Run starts the scheduler and blocks until ctx ends and running jobs return.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

var _ cron.Job = (*RecomputeJob)(nil)
