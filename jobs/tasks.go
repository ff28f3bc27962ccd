package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskQuestExpiryScan sweeps active quests past their deadline.
	TaskQuestExpiryScan = "quest:expiry_scan"
	// TaskFrameRenderWarmup pre-renders frames so the cache is hot.
	TaskFrameRenderWarmup = "frame:render_warmup"
	// TaskMintSweep fails pending mints past the settlement grace period.
	TaskMintSweep = "mint:sweep"
)

// FrameWarmupPayload names the frames to pre-render. Empty means all.
type FrameWarmupPayload struct {
	Slugs []string `json:"slugs"`
}

// NewQuestExpiryScanTask constructs the expiry scan task.
func NewQuestExpiryScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(map[string]string{"at": at.UTC().Format(time.RFC3339)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuestExpiryScan, body, asynq.Queue(QueueDefault)), nil
}

// NewFrameRenderWarmupTask constructs the render warmup task.
func NewFrameRenderWarmupTask(payload FrameWarmupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFrameRenderWarmup, body, asynq.Queue(QueueDefault)), nil
}

// NewMintSweepTask constructs the mint sweep task.
func NewMintSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(map[string]string{"at": at.UTC().Format(time.RFC3339)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMintSweep, body, asynq.Queue(QueueDefault)), nil
}
