// Package services holds the thin orchestration layer between the HTTP
// handlers and the repos: request validation, id normalization, and the
// control-plane operations on jobs.
package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/domain"
	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

// CreateJobInput is the request payload for a new job.
type CreateJobInput struct {
	Mode         string `json:"mode"`
	GenerationID int    `json:"generationId"`
	Region       string `json:"region"`
	Voice        string `json:"voice"`
	PokemonIDs   []int  `json:"pokemonIds"`
}

type JobService interface {
	Create(ctx context.Context, in CreateJobInput) (*domain.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, limit int) ([]*domain.Job, error)

	Pause(ctx context.Context, id uuid.UUID) error
	Resume(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error

	RecoverStalled(ctx context.Context, threshold time.Duration) (int64, error)
	PauseAll(ctx context.Context) (int64, error)
	CancelAll(ctx context.Context) (int64, error)
}

type jobService struct {
	log  *logger.Logger
	jobs repos.JobRepo
}

func NewJobService(log *logger.Logger, jobRepo repos.JobRepo) JobService {
	return &jobService{
		log:  log.With("service", "JobService"),
		jobs: jobRepo,
	}
}

func (s *jobService) Create(ctx context.Context, in CreateJobInput) (*domain.Job, error) {
	mode := domain.JobMode(in.Mode)
	if !mode.Valid() {
		return nil, errs.Validation("invalid mode %q", in.Mode)
	}
	ids, err := normalizeIDs(in.PokemonIDs)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.Create(ctx, &domain.Job{
		Mode:         mode,
		GenerationID: in.GenerationID,
		Region:       in.Region,
		Voice:        in.Voice,
		PokemonIDs:   ids,
		Total:        len(ids),
	})
	if err != nil {
		return nil, errs.Store(err)
	}
	s.log.Info("Job created",
		"job_id", job.ID,
		"mode", job.Mode,
		"entries", len(ids),
		"generation_id", job.GenerationID,
	)
	return job, nil
}

// normalizeIDs dedupes and sorts ascending so the stages walk the catalog in
// order. Non-positive ids and an empty list refuse the job outright.
func normalizeIDs(ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, errs.Validation("pokemon_ids required")
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, errs.Validation("invalid id %d: must be positive", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Store(err)
	}
	return job, nil
}

func (s *jobService) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	jobs, err := s.jobs.List(ctx, limit)
	if err != nil {
		return nil, errs.Store(err)
	}
	return jobs, nil
}

func (s *jobService) Pause(ctx context.Context, id uuid.UUID) error {
	return s.jobs.Pause(ctx, id)
}

func (s *jobService) Resume(ctx context.Context, id uuid.UUID) error {
	return s.jobs.Resume(ctx, id)
}

func (s *jobService) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.jobs.Cancel(ctx, id)
}

func (s *jobService) RecoverStalled(ctx context.Context, threshold time.Duration) (int64, error) {
	n, err := s.jobs.RecoverStalled(ctx, threshold)
	if err != nil {
		return 0, errs.Store(err)
	}
	if n > 0 {
		s.log.Info("Recovered stalled jobs", "count", n, "threshold", threshold.String())
	}
	return n, nil
}

func (s *jobService) PauseAll(ctx context.Context) (int64, error) {
	n, err := s.jobs.PauseAll(ctx)
	if err != nil {
		return 0, errs.Store(err)
	}
	s.log.Info("Paused all active jobs", "count", n)
	return n, nil
}

func (s *jobService) CancelAll(ctx context.Context) (int64, error) {
	n, err := s.jobs.CancelAll(ctx)
	if err != nil {
		return 0, errs.Store(err)
	}
	s.log.Info("Canceled all active jobs", "count", n)
	return n, nil
}
