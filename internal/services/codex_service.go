package services

import (
	"context"
	"strings"

	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/domain"
	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

// CodexService is the read/maintenance surface over the generated artifacts:
// summaries, audio logs, and prompt overrides.
type CodexService interface {
	GetSummary(ctx context.Context, id int) (*domain.Summary, error)
	ListSummaries(ctx context.Context, generationID int) ([]*domain.Summary, error)
	DeleteSummary(ctx context.Context, id int) error

	GetAudioLog(ctx context.Context, id int) (*domain.AudioLog, error)
	ListAudioLogs(ctx context.Context, generationID int) ([]*domain.AudioLog, error)
	DeleteAudioLog(ctx context.Context, id int) error

	GetPrompt(ctx context.Context, promptType string) (*domain.Prompt, error)
	SetPrompt(ctx context.Context, promptType, content string) error
	DeletePrompt(ctx context.Context, promptType string) error
}

type codexService struct {
	log       *logger.Logger
	summaries repos.SummaryRepo
	audioLogs repos.AudioLogRepo
	prompts   repos.PromptRepo
}

func NewCodexService(
	log *logger.Logger,
	summaryRepo repos.SummaryRepo,
	audioLogRepo repos.AudioLogRepo,
	promptRepo repos.PromptRepo,
) CodexService {
	return &codexService{
		log:       log.With("service", "CodexService"),
		summaries: summaryRepo,
		audioLogs: audioLogRepo,
		prompts:   promptRepo,
	}
}

func (s *codexService) GetSummary(ctx context.Context, id int) (*domain.Summary, error) {
	if id <= 0 {
		return nil, errs.Validation("invalid id %d", id)
	}
	out, err := s.summaries.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Store(err)
	}
	return out, nil
}

func (s *codexService) ListSummaries(ctx context.Context, generationID int) ([]*domain.Summary, error) {
	var (
		out []*domain.Summary
		err error
	)
	if generationID > 0 {
		out, err = s.summaries.ListByGeneration(ctx, generationID)
	} else {
		out, err = s.summaries.List(ctx)
	}
	if err != nil {
		return nil, errs.Store(err)
	}
	return out, nil
}

func (s *codexService) DeleteSummary(ctx context.Context, id int) error {
	if id <= 0 {
		return errs.Validation("invalid id %d", id)
	}
	if err := s.summaries.Delete(ctx, id); err != nil {
		return errs.Store(err)
	}
	return nil
}

func (s *codexService) GetAudioLog(ctx context.Context, id int) (*domain.AudioLog, error) {
	if id <= 0 {
		return nil, errs.Validation("invalid id %d", id)
	}
	out, err := s.audioLogs.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Store(err)
	}
	return out, nil
}

func (s *codexService) ListAudioLogs(ctx context.Context, generationID int) ([]*domain.AudioLog, error) {
	var (
		out []*domain.AudioLog
		err error
	)
	if generationID > 0 {
		out, err = s.audioLogs.ListByGeneration(ctx, generationID)
	} else {
		out, err = s.audioLogs.List(ctx)
	}
	if err != nil {
		return nil, errs.Store(err)
	}
	return out, nil
}

func (s *codexService) DeleteAudioLog(ctx context.Context, id int) error {
	if id <= 0 {
		return errs.Validation("invalid id %d", id)
	}
	if err := s.audioLogs.Delete(ctx, id); err != nil {
		return errs.Store(err)
	}
	return nil
}

func validPromptType(t string) bool {
	return t == domain.PromptTypeSummary || t == domain.PromptTypeTTS
}

func (s *codexService) GetPrompt(ctx context.Context, promptType string) (*domain.Prompt, error) {
	if !validPromptType(promptType) {
		return nil, errs.Validation("unknown prompt type %q", promptType)
	}
	out, err := s.prompts.Get(ctx, promptType)
	if err != nil {
		return nil, errs.Store(err)
	}
	return out, nil
}

func (s *codexService) SetPrompt(ctx context.Context, promptType, content string) error {
	if !validPromptType(promptType) {
		return errs.Validation("unknown prompt type %q", promptType)
	}
	if strings.TrimSpace(content) == "" {
		return errs.Validation("prompt content required")
	}
	if err := s.prompts.Upsert(ctx, &domain.Prompt{Type: promptType, Content: content}); err != nil {
		return errs.Store(err)
	}
	s.log.Info("Prompt override saved", "type", promptType, "chars", len(content))
	return nil
}

func (s *codexService) DeletePrompt(ctx context.Context, promptType string) error {
	if !validPromptType(promptType) {
		return errs.Validation("unknown prompt type %q", promptType)
	}
	if err := s.prompts.Delete(ctx, promptType); err != nil {
		return errs.Store(err)
	}
	return nil
}
