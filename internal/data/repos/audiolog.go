package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/fieldlog-backend/internal/domain"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

type AudioLogRepo interface {
	// Upsert replaces an existing record in place, preserving created_at.
	Upsert(ctx context.Context, a *domain.AudioLog) error
	GetByID(ctx context.Context, id int) (*domain.AudioLog, error)
	ListByGeneration(ctx context.Context, generationID int) ([]*domain.AudioLog, error)
	List(ctx context.Context) ([]*domain.AudioLog, error)
	Delete(ctx context.Context, id int) error
}

type audioLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAudioLogRepo(db *gorm.DB, baseLog *logger.Logger) AudioLogRepo {
	return &audioLogRepo{
		db:  db,
		log: baseLog.With("repo", "AudioLogRepo"),
	}
}

func (r *audioLogRepo) Upsert(ctx context.Context, a *domain.AudioLog) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "region", "generation_id", "voice",
				"audio_base64", "audio_format", "sample_rate", "bitrate",
				"updated_at",
			}),
		}).
		Create(a).Error
}

func (r *audioLogRepo) GetByID(ctx context.Context, id int) (*domain.AudioLog, error) {
	var a domain.AudioLog
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *audioLogRepo) ListByGeneration(ctx context.Context, generationID int) ([]*domain.AudioLog, error) {
	var out []*domain.AudioLog
	err := r.db.WithContext(ctx).
		Where("generation_id = ?", generationID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *audioLogRepo) List(ctx context.Context) ([]*domain.AudioLog, error) {
	var out []*domain.AudioLog
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *audioLogRepo) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&domain.AudioLog{}, "id = ?", id).Error
}
