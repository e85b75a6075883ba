package repos

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/fieldlog-backend/internal/domain"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

type PromptRepo interface {
	Upsert(ctx context.Context, p *domain.Prompt) error
	Get(ctx context.Context, promptType string) (*domain.Prompt, error)
	// GetContent returns the stored override for promptType, or fallback when
	// no non-empty override exists.
	GetContent(ctx context.Context, promptType string, fallback string) (string, error)
	Delete(ctx context.Context, promptType string) error
}

type promptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptRepo(db *gorm.DB, baseLog *logger.Logger) PromptRepo {
	return &promptRepo{
		db:  db,
		log: baseLog.With("repo", "PromptRepo"),
	}
}

func (r *promptRepo) Upsert(ctx context.Context, p *domain.Prompt) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(p).Error
}

func (r *promptRepo) Get(ctx context.Context, promptType string) (*domain.Prompt, error) {
	var p domain.Prompt
	err := r.db.WithContext(ctx).
		Where("type = ?", promptType).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.Type == "" {
		return nil, nil
	}
	return &p, nil
}

func (r *promptRepo) GetContent(ctx context.Context, promptType string, fallback string) (string, error) {
	p, err := r.Get(ctx, promptType)
	if err != nil {
		return "", err
	}
	if p == nil || strings.TrimSpace(p.Content) == "" {
		return fallback, nil
	}
	return p.Content, nil
}

func (r *promptRepo) Delete(ctx context.Context, promptType string) error {
	return r.db.WithContext(ctx).Delete(&domain.Prompt{}, "type = ?", promptType).Error
}
