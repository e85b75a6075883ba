package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/domain"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

// Runner is the scheduler: a single ticker loop that claims queued jobs when
// the per-stage caps allow and hands each one to a worker goroutine.
type Runner struct {
	log    *logger.Logger
	cfg    Config
	engine *Engine
	jobs   repos.JobRepo

	startOnce sync.Once

	mu     sync.Mutex
	active map[uuid.UUID]domain.JobStage
	wg     sync.WaitGroup
}

func NewRunner(log *logger.Logger, cfg Config, engine *Engine, jobRepo repos.JobRepo) *Runner {
	return &Runner{
		log:    log.With("service", "JobRunner"),
		cfg:    cfg,
		engine: engine,
		jobs:   jobRepo,
		active: map[uuid.UUID]domain.JobStage{},
	}
}

// Start launches the claim loop once; later calls are no-ops.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.log.Info("Job runner starting",
			"max_text_jobs", r.cfg.MaxTextJobs,
			"max_audio_jobs", r.cfg.MaxAudioJobs,
			"tick", r.cfg.TickInterval.String(),
		)
		go r.loop(ctx)
	})
}

// Wait blocks until all in-flight workers return. Tests use it; main relies
// on process lifetime.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) loop(ctx context.Context) {
	tick := r.cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Job runner stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick claims at most one job. The stage counts are read before the claim;
// if the claimed job's stage turned out to be full, the job goes straight
// back to the queue and a later tick picks it up.
func (r *Runner) tick(ctx context.Context) {
	textRunning, err := r.jobs.CountRunningByStage(ctx, domain.StageSummary)
	if err != nil {
		r.log.Error("Count running summary jobs failed", "error", err)
		return
	}
	audioRunning, err := r.jobs.CountRunningByStage(ctx, domain.StageAudio)
	if err != nil {
		r.log.Error("Count running audio jobs failed", "error", err)
		return
	}
	if textRunning >= int64(r.cfg.MaxTextJobs) && audioRunning >= int64(r.cfg.MaxAudioJobs) {
		return
	}

	job, err := r.jobs.ClaimNextQueued(ctx)
	if err != nil {
		r.log.Error("Claim failed", "error", err)
		return
	}
	if job == nil {
		return
	}

	if (job.Stage == domain.StageSummary && textRunning >= int64(r.cfg.MaxTextJobs)) ||
		(job.Stage == domain.StageAudio && audioRunning >= int64(r.cfg.MaxAudioJobs)) {
		if err := r.jobs.Requeue(ctx, job.ID); err != nil {
			r.log.Error("Requeue failed", "job_id", job.ID, "error", err)
		}
		return
	}

	r.mu.Lock()
	r.active[job.ID] = job.Stage
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.active, job.ID)
			r.mu.Unlock()
		}()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("Worker panicked", "job_id", job.ID, "panic", rec)
				_ = r.jobs.SetError(ctx, job.ID, fmt.Sprintf("internal error: %v", rec))
			}
		}()
		r.runJob(ctx, job)
	}()
}

// runJob executes the job's current stage and chains into the audio stage
// when the mode asks for both.
func (r *Runner) runJob(ctx context.Context, job *domain.Job) {
	log := r.log.With("job_id", job.ID, "mode", job.Mode)

	// Artwork prefetch is best-effort and never blocks the stages.
	if r.cfg.SpriteDir != "" {
		go func() {
			if err := r.engine.catalog.DownloadSprites(ctx, []int(job.PokemonIDs), r.cfg.SpriteDir); err != nil {
				log.Warn("Sprite prefetch failed", "error", err)
			}
		}()
	}

	if job.Stage == domain.StageSummary {
		log.Info("Summary stage starting", "entries", len(job.PokemonIDs), "cursor", job.Current)
		res, err := r.engine.runSummaryStage(ctx, job)
		if err != nil {
			log.Error("Summary stage failed", "error", err)
			_ = r.jobs.SetError(ctx, job.ID, err.Error())
			return
		}
		if res == stageInterrupted {
			log.Info("Summary stage interrupted")
			return
		}
		if job.Mode == domain.JobModeSummaryOnly {
			r.complete(ctx, job, domain.StageSummary, len(job.PokemonIDs))
			return
		}
		if err := r.jobs.BeginAudioStage(ctx, job.ID); err != nil {
			log.Error("Begin audio stage failed", "error", err)
			_ = r.jobs.SetError(ctx, job.ID, err.Error())
			return
		}
		job.Stage = domain.StageAudio
		job.Current = 0
	}

	log.Info("Audio stage starting", "cursor", job.Current)
	res, err := r.engine.runAudioStage(ctx, job)
	if err != nil {
		log.Error("Audio stage failed", "error", err)
		_ = r.jobs.SetError(ctx, job.ID, err.Error())
		return
	}
	if res == stageInterrupted {
		log.Info("Audio stage interrupted")
		return
	}

	current, err := r.jobs.GetByID(ctx, job.ID)
	total := 0
	if err == nil && current != nil {
		total = current.Total
	}
	r.complete(ctx, job, domain.StageAudio, total)
}

func (r *Runner) complete(ctx context.Context, job *domain.Job, stage domain.JobStage, total int) {
	// A cancel or pause can land between the stage finishing and this write;
	// the control transition wins.
	current, err := r.jobs.GetByID(ctx, job.ID)
	if err != nil {
		r.log.Error("Completion lookup failed", "job_id", job.ID, "error", err)
		return
	}
	if current == nil || current.Status != domain.StatusRunning {
		r.log.Info("Job left running before completion", "job_id", job.ID)
		return
	}
	if err := r.jobs.SetProgress(ctx, job.ID, stage, total, total, "Completed"); err != nil {
		r.log.Error("Final progress write failed", "job_id", job.ID, "error", err)
	}
	if err := r.jobs.SetStatus(ctx, job.ID, domain.StatusCompleted); err != nil {
		if errors.Is(err, repos.ErrIllegalTransition) {
			r.log.Info("Completion lost a race with a control transition", "job_id", job.ID)
			return
		}
		r.log.Error("Complete transition failed", "job_id", job.ID, "error", err)
		return
	}
	r.log.Info("Job completed", "job_id", job.ID, "mode", job.Mode)
}
