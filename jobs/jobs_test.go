package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/castquest/castquest/internal/frames"
)

type expirerStub struct {
	count int
	err   error
	calls int
}

func (s *expirerStub) ExpireDue(ctx context.Context) (int, error) {
	s.calls++
	return s.count, s.err
}

type rendererStub struct {
	frames   []frames.Frame
	rendered []string
	failSlug string
}

func (s *rendererStub) List(ctx context.Context, limit, offset int) ([]frames.Frame, error) {
	if offset >= len(s.frames) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(s.frames) {
		end = len(s.frames)
	}
	return s.frames[offset:end], nil
}

func (s *rendererStub) Render(ctx context.Context, slug string) (frames.RenderedFrame, error) {
	if slug == s.failSlug {
		return frames.RenderedFrame{}, errors.New("render failed")
	}
	s.rendered = append(s.rendered, slug)
	return frames.RenderedFrame{Slug: slug}, nil
}

type sweeperStub struct {
	count int64
	err   error
}

func (s *sweeperStub) FailOverdue(ctx context.Context) (int64, error) {
	return s.count, s.err
}

func TestQuestExpiryJobHandle(t *testing.T) {
	stub := &expirerStub{count: 3}
	job := NewQuestExpiryJob(stub, nil, nil)

	task, err := NewQuestExpiryScanTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, stub.calls)

	stub.err = errors.New("db down")
	require.Error(t, job.Handle(context.Background(), task))
}

func TestFrameWarmupJobHandle(t *testing.T) {
	stub := &rendererStub{
		frames:   []frames.Frame{{Slug: "alpha"}, {Slug: "beta"}},
		failSlug: "beta",
	}
	job := NewFrameWarmupJob(stub, nil, nil)

	// Empty payload warms every frame; render failures are skipped.
	task, err := NewFrameRenderWarmupTask(FrameWarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"alpha"}, stub.rendered)

	stub.rendered = nil
	task, err = NewFrameRenderWarmupTask(FrameWarmupPayload{Slugs: []string{"alpha"}})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"alpha"}, stub.rendered)

	// Malformed payloads never retry.
	bad := asynq.NewTask(TaskFrameRenderWarmup, []byte("not json"))
	require.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)
}

func TestFrameWarmupPagesThroughListing(t *testing.T) {
	// More frames than one listing page holds.
	stub := &rendererStub{}
	for i := 0; i < 450; i++ {
		stub.frames = append(stub.frames, frames.Frame{Slug: fmt.Sprintf("frame-%03d", i)})
	}
	job := NewFrameWarmupJob(stub, nil, nil)

	task, err := NewFrameRenderWarmupTask(FrameWarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, stub.rendered, 450)
	require.Equal(t, "frame-449", stub.rendered[449])
}

func TestMintSweepJobHandle(t *testing.T) {
	job := NewMintSweepJob(&sweeperStub{count: 2}, nil, nil)

	task, err := NewMintSweepTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	job = NewMintSweepJob(&sweeperStub{err: errors.New("db down")}, nil, nil)
	require.Error(t, job.Handle(context.Background(), task))
}
