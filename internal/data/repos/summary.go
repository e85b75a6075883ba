package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/fieldlog-backend/internal/domain"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

type SummaryRepo interface {
	// Upsert replaces an existing record in place, preserving created_at.
	Upsert(ctx context.Context, s *domain.Summary) error
	GetByID(ctx context.Context, id int) (*domain.Summary, error)
	GetByIDs(ctx context.Context, ids []int) ([]*domain.Summary, error)
	ListByGeneration(ctx context.Context, generationID int) ([]*domain.Summary, error)
	List(ctx context.Context) ([]*domain.Summary, error)
	Delete(ctx context.Context, id int) error
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return &summaryRepo{
		db:  db,
		log: baseLog.With("repo", "SummaryRepo"),
	}
}

func (r *summaryRepo) Upsert(ctx context.Context, s *domain.Summary) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "summary", "region", "generation_id", "updated_at",
			}),
		}).
		Create(s).Error
}

func (r *summaryRepo) GetByID(ctx context.Context, id int) (*domain.Summary, error) {
	var s domain.Summary
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *summaryRepo) GetByIDs(ctx context.Context, ids []int) ([]*domain.Summary, error) {
	var out []*domain.Summary
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *summaryRepo) ListByGeneration(ctx context.Context, generationID int) ([]*domain.Summary, error) {
	var out []*domain.Summary
	err := r.db.WithContext(ctx).
		Where("generation_id = ?", generationID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *summaryRepo) List(ctx context.Context) ([]*domain.Summary, error) {
	var out []*domain.Summary
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *summaryRepo) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&domain.Summary{}, "id = ?", id).Error
}
