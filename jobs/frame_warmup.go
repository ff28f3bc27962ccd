package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/castquest/castquest/internal/frames"
	jobmetrics "github.com/castquest/castquest/internal/jobs"
)

// FrameRenderer renders frames into the cache.
type FrameRenderer interface {
	List(ctx context.Context, limit, offset int) ([]frames.Frame, error)
	Render(ctx context.Context, slug string) (frames.RenderedFrame, error)
}

// FrameWarmupJob pre-renders frames so user-facing requests hit the cache.
type FrameWarmupJob struct {
	Service FrameRenderer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewFrameWarmupJob constructs the job handler.
func NewFrameWarmupJob(service FrameRenderer, logger *slog.Logger, metrics *jobmetrics.Metrics) *FrameWarmupJob {
	return &FrameWarmupJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes TaskFrameRenderWarmup tasks.
func (j *FrameWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload FrameWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskFrameRenderWarmup)

	slugs := payload.Slugs
	if len(slugs) == 0 {
		// Page through the full listing; a single call would stop at the
		// repository's default limit.
		const pageSize = 200
		for offset := 0; ; offset += pageSize {
			page, err := j.Service.List(ctx, pageSize, offset)
			if err != nil {
				return tracker.End(err)
			}
			for _, frame := range page {
				slugs = append(slugs, frame.Slug)
			}
			if len(page) < pageSize {
				break
			}
		}
	}

	warmed := 0
	for _, slug := range slugs {
		if _, err := j.Service.Render(ctx, slug); err != nil {
			if j.Logger != nil {
				j.Logger.Warn("frame warmup render", slog.String("slug", slug), slog.Any("error", err))
			}
			continue
		}
		warmed++
	}
	j.Metrics.AddSwept(TaskFrameRenderWarmup, warmed)
	if j.Logger != nil {
		j.Logger.Info("frame warmup", slog.Int("warmed", warmed), slog.Int("requested", len(slugs)))
	}
	return tracker.End(nil)
}
