package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/fieldlog-backend/internal/domain"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

// ErrIllegalTransition is returned by SetStatus when the job exists but its
// current status does not admit the requested transition.
var ErrIllegalTransition = errors.New("illegal status transition")

type JobRepo interface {
	Create(ctx context.Context, job *domain.Job) (*domain.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, limit int) ([]*domain.Job, error)

	// ClaimNextQueued atomically flips the oldest queued job to running and
	// returns it, or nil when nothing is queued.
	ClaimNextQueued(ctx context.Context) (*domain.Job, error)

	SetProgress(ctx context.Context, id uuid.UUID, stage domain.JobStage, current, total int, message string) error
	SetCooldownUntil(ctx context.Context, id uuid.UUID, until *time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error
	SetError(ctx context.Context, id uuid.UUID, msg string) error

	// BeginAudioStage flips a job to the audio stage with a fresh cursor.
	BeginAudioStage(ctx context.Context, id uuid.UUID) error

	// Requeue puts a just-claimed running job back in the queue. The
	// scheduler uses it when a concurrency cap filled between the count
	// and the claim; it is not part of the public transition set.
	Requeue(ctx context.Context, id uuid.UUID) error

	Pause(ctx context.Context, id uuid.UUID) error
	Resume(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error

	// Heartbeat refreshes updated_at on a running job. Workers call it from
	// every sleep slice so a long cooldown or retry wait is not mistaken for
	// a stall.
	Heartbeat(ctx context.Context, id uuid.UUID) error

	RecoverStalled(ctx context.Context, threshold time.Duration) (int64, error)
	PauseAll(ctx context.Context) (int64, error)
	CancelAll(ctx context.Context) (int64, error)

	CountRunningByStage(ctx context.Context, stage domain.JobStage) (int64, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{
		db:  db,
		log: baseLog.With("repo", "JobRepo"),
	}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if job == nil {
		return nil, fmt.Errorf("job required")
	}
	now := time.Now().UTC()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.Status = domain.StatusQueued
	job.Stage = job.Mode.InitialStage()
	job.Current = 0
	job.Message = "Queued"
	job.CooldownUntil = nil
	job.CreatedAt = now
	job.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *jobRepo) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*domain.Job
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ClaimNextQueued selects the oldest queued job and flips it to running in
// one transaction. The conditional UPDATE (status still queued) plus the
// RowsAffected guard keeps the claim exactly-once on both sqlite and
// postgres; a lost race returns nil and the caller tries again next tick.
func (r *jobRepo) ClaimNextQueued(ctx context.Context) (*domain.Job, error) {
	var claimed *domain.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		qErr := tx.
			Where("status = ?", domain.StatusQueued).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		res := tx.Model(&domain.Job{}).
			Where("id = ? AND status = ?", job.ID, domain.StatusQueued).
			Updates(map[string]interface{}{
				"status":         domain.StatusRunning,
				"cooldown_until": nil,
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another claimer won the race.
			return nil
		}
		job.Status = domain.StatusRunning
		job.CooldownUntil = nil
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRepo) SetProgress(ctx context.Context, id uuid.UUID, stage domain.JobStage, current, total int, message string) error {
	return r.updateNonTerminal(ctx, id, map[string]interface{}{
		"stage":   stage,
		"current": current,
		"total":   total,
		"message": message,
	})
}

func (r *jobRepo) SetCooldownUntil(ctx context.Context, id uuid.UUID, until *time.Time) error {
	return r.updateNonTerminal(ctx, id, map[string]interface{}{
		"cooldown_until": until,
	})
}

// legalFrom lists the statuses that admit a transition to the target.
func legalFrom(to domain.JobStatus) []domain.JobStatus {
	switch to {
	case domain.StatusRunning:
		return []domain.JobStatus{domain.StatusQueued}
	case domain.StatusPaused:
		return []domain.JobStatus{domain.StatusRunning}
	case domain.StatusQueued: // resume
		return []domain.JobStatus{domain.StatusPaused}
	case domain.StatusCanceled:
		return []domain.JobStatus{domain.StatusRunning, domain.StatusPaused}
	case domain.StatusCompleted:
		return []domain.JobStatus{domain.StatusRunning}
	case domain.StatusFailed:
		return []domain.JobStatus{domain.StatusQueued, domain.StatusRunning, domain.StatusPaused}
	default:
		return nil
	}
}

func (r *jobRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	from := legalFrom(status)
	if len(from) == 0 {
		return fmt.Errorf("%w: no transition to %q", ErrIllegalTransition, status)
	}
	// Cooldown is cleared on every status change: any transition out of
	// running must drop it, and entering running starts fresh.
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":         status,
			"cooldown_until": nil,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		job, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if job == nil {
			return gorm.ErrRecordNotFound
		}
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, job.Status, status)
	}
	return nil
}

func (r *jobRepo) SetError(ctx context.Context, id uuid.UUID, msg string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses()).
		Updates(map[string]interface{}{
			"status":         domain.StatusFailed,
			"error":          msg,
			"cooldown_until": nil,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warn("SetError on terminal or missing job", "job_id", id, "error_msg", msg)
	}
	return nil
}

func (r *jobRepo) BeginAudioStage(ctx context.Context, id uuid.UUID) error {
	return r.updateNonTerminal(ctx, id, map[string]interface{}{
		"stage":          domain.StageAudio,
		"current":        0,
		"cooldown_until": nil,
		"message":        "Starting audio synthesis...",
	})
}

func (r *jobRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, domain.StatusRunning).
		Updates(map[string]interface{}{
			"status":         domain.StatusQueued,
			"cooldown_until": nil,
			"message":        "Queued",
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warn("Requeue on non-running job", "job_id", id)
	}
	return nil
}

func (r *jobRepo) Pause(ctx context.Context, id uuid.UUID) error {
	return r.SetStatus(ctx, id, domain.StatusPaused)
}

func (r *jobRepo) Resume(ctx context.Context, id uuid.UUID) error {
	if err := r.SetStatus(ctx, id, domain.StatusQueued); err != nil {
		return err
	}
	return r.updateNonTerminal(ctx, id, map[string]interface{}{"message": "Queued"})
}

func (r *jobRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	return r.SetStatus(ctx, id, domain.StatusCanceled)
}

func (r *jobRepo) Heartbeat(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, domain.StatusRunning).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

func (r *jobRepo) RecoverStalled(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-threshold)
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("status = ? AND updated_at < ?", domain.StatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":         domain.StatusQueued,
			"cooldown_until": nil,
			"message":        "Recovered",
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *jobRepo) PauseAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("status IN ?", []domain.JobStatus{domain.StatusQueued, domain.StatusRunning}).
		Updates(map[string]interface{}{
			"status":         domain.StatusPaused,
			"cooldown_until": nil,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *jobRepo) CancelAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("status NOT IN ?", terminalStatuses()).
		Updates(map[string]interface{}{
			"status":         domain.StatusCanceled,
			"cooldown_until": nil,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *jobRepo) CountRunningByStage(ctx context.Context, stage domain.JobStage) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("status = ? AND stage = ?", domain.StatusRunning, stage).
		Count(&count).Error
	return count, err
}

// updateNonTerminal applies updates unless the job has reached a terminal
// status; terminal rows are immutable.
func (r *jobRepo) updateNonTerminal(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses()).
		Updates(updates).Error
}

func terminalStatuses() []domain.JobStatus {
	return []domain.JobStatus{domain.StatusCompleted, domain.StatusFailed, domain.StatusCanceled}
}
