package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/castquest/castquest/internal/jobs"
)

// MintSweeper fails overdue pending mints.
type MintSweeper interface {
	FailOverdue(ctx context.Context) (int64, error)
}

// MintSweepJob fails pending mints that outlived the settlement grace period
// without receiving a transaction hash.
type MintSweepJob struct {
	Service MintSweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMintSweepJob constructs the job handler.
func NewMintSweepJob(service MintSweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *MintSweepJob {
	return &MintSweepJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes TaskMintSweep tasks.
func (j *MintSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.Metrics.Track(TaskMintSweep)
	count, err := j.Service.FailOverdue(ctx)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("mint sweep", slog.Any("error", err))
		}
		return tracker.End(err)
	}
	j.Metrics.AddSwept(TaskMintSweep, int(count))
	if j.Logger != nil && count > 0 {
		j.Logger.Info("mint sweep", slog.Int64("failed", count))
	}
	return tracker.End(nil)
}
