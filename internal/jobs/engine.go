// Package jobs holds the execution engine: the two stage workers that walk a
// job's id list, and the scheduler that claims queued jobs under the per-stage
// concurrency caps. All progress lives in the jobs table, so a crashed worker
// resumes from its cursor after stalled-job recovery.
package jobs

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/fieldlog-backend/internal/clients/gemini"
	"github.com/yungbote/fieldlog-backend/internal/clients/pokeapi"
	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/domain"
	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

// stageResult reports how a stage ended short of an error.
type stageResult int

const (
	// stageDone: the stage finished all work.
	stageDone stageResult = iota
	// stageInterrupted: the job was paused or canceled mid-stage; the
	// worker exits without touching the status further.
	stageInterrupted
)

type Engine struct {
	log       *logger.Logger
	cfg       Config
	jobs      repos.JobRepo
	summaries repos.SummaryRepo
	audioLogs repos.AudioLogRepo
	prompts   repos.PromptRepo
	gemini    gemini.Client
	catalog   pokeapi.Client
}

func NewEngine(
	log *logger.Logger,
	cfg Config,
	jobRepo repos.JobRepo,
	summaryRepo repos.SummaryRepo,
	audioLogRepo repos.AudioLogRepo,
	promptRepo repos.PromptRepo,
	geminiClient gemini.Client,
	catalogClient pokeapi.Client,
) *Engine {
	return &Engine{
		log:       log.With("service", "JobEngine"),
		cfg:       cfg,
		jobs:      jobRepo,
		summaries: summaryRepo,
		audioLogs: audioLogRepo,
		prompts:   promptRepo,
		gemini:    geminiClient,
		catalog:   catalogClient,
	}
}

// jitter spreads a base duration to 80-120% so concurrent jobs do not hit the
// provider in lockstep.
func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return time.Duration(float64(base) * (0.8 + 0.4*rand.Float64()))
}

// interrupted reports whether the job is no longer running (paused, canceled,
// or gone). Workers call this before every unit of work and once per sleep
// slice.
func (e *Engine) interrupted(ctx context.Context, id uuid.UUID) (bool, error) {
	job, err := e.jobs.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if job == nil {
		return true, nil
	}
	return job.Status != domain.StatusRunning, nil
}

// sleepSliced sleeps for d in PollSlice increments, checking the job status
// between slices so a pause or cancel is observed within one slice.
func (e *Engine) sleepSliced(ctx context.Context, id uuid.UUID, d time.Duration) (stageResult, error) {
	slice := e.cfg.PollSlice
	if slice <= 0 {
		slice = time.Second
	}
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return stageDone, nil
		}
		if remaining > slice {
			remaining = slice
		}
		select {
		case <-time.After(remaining):
		case <-ctx.Done():
			return stageInterrupted, ctx.Err()
		}
		intr, err := e.interrupted(ctx, id)
		if err != nil {
			return stageInterrupted, err
		}
		if intr {
			return stageInterrupted, nil
		}
		// Keep updated_at fresh while sleeping so stalled-job recovery does
		// not reclaim a job that is deliberately waiting out a cooldown.
		if err := e.jobs.Heartbeat(ctx, id); err != nil {
			return stageInterrupted, err
		}
	}
}

// cooldown records the pacing window on the job, sleeps it out in slices, and
// clears it. Interruptions leave the clearing to the status transition.
func (e *Engine) cooldown(ctx context.Context, id uuid.UUID, base time.Duration) (stageResult, error) {
	d := jitter(base)
	until := time.Now().UTC().Add(d)
	if err := e.jobs.SetCooldownUntil(ctx, id, &until); err != nil {
		return stageInterrupted, err
	}
	res, err := e.sleepSliced(ctx, id, d)
	if err != nil || res == stageInterrupted {
		return res, err
	}
	if err := e.jobs.SetCooldownUntil(ctx, id, nil); err != nil {
		return stageInterrupted, err
	}
	return stageDone, nil
}

// withRetry runs fn with bounded retry, doubling the wait between attempts
// and polling the job status during waits. Errors the provider classified as
// non-retryable fail immediately.
func (e *Engine) withRetry(ctx context.Context, id uuid.UUID, op string, fn func() error) (stageResult, error) {
	wait := e.cfg.StageRetryBase
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return stageDone, nil
		}
		if !errs.IsRetryable(err) || attempt >= e.cfg.StageMaxAttempts {
			return stageDone, fmt.Errorf("%s: %w", op, err)
		}
		e.log.Warn("Step failed, retrying",
			"job_id", id,
			"op", op,
			"attempt", attempt,
			"max_attempts", e.cfg.StageMaxAttempts,
			"wait", wait.String(),
			"error", err.Error(),
		)
		res, sErr := e.sleepSliced(ctx, id, wait)
		if sErr != nil || res == stageInterrupted {
			return stageInterrupted, sErr
		}
		wait *= 2
	}
}
