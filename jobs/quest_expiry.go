package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/castquest/castquest/internal/jobs"
)

// QuestExpirer sweeps overdue quests.
type QuestExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// QuestExpiryJob marks active quests past their deadline as expired.
type QuestExpiryJob struct {
	Service QuestExpirer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewQuestExpiryJob constructs the job handler.
func NewQuestExpiryJob(service QuestExpirer, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuestExpiryJob {
	return &QuestExpiryJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes TaskQuestExpiryScan tasks.
func (j *QuestExpiryJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.Metrics.Track(TaskQuestExpiryScan)
	count, err := j.Service.ExpireDue(ctx)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("quest expiry scan", slog.Any("error", err))
		}
		return tracker.End(err)
	}
	j.Metrics.AddSwept(TaskQuestExpiryScan, count)
	if j.Logger != nil && count > 0 {
		j.Logger.Info("quest expiry scan", slog.Int("expired", count))
	}
	return tracker.End(nil)
}
