package jobs

import (
	"context"
	"fmt"

	"github.com/yungbote/fieldlog-backend/internal/domain"
)

// runSummaryStage walks the job's ids from the current cursor, generating and
// persisting one field log summary per entry. Each saved summary advances the
// cursor before the cooldown starts, so a pause or crash resumes at the next
// unsummarized entry.
func (e *Engine) runSummaryStage(ctx context.Context, job *domain.Job) (stageResult, error) {
	template, err := e.prompts.GetContent(ctx, domain.PromptTypeSummary, defaultSummaryPrompt)
	if err != nil {
		return stageDone, fmt.Errorf("load summary prompt: %w", err)
	}

	ids := []int(job.PokemonIDs)
	total := len(ids)

	for i := job.Current; i < total; i++ {
		intr, err := e.interrupted(ctx, job.ID)
		if err != nil {
			return stageInterrupted, err
		}
		if intr {
			return stageInterrupted, nil
		}

		id := ids[i]
		msg := fmt.Sprintf("Generating summary for #%d...", id)
		if err := e.jobs.SetProgress(ctx, job.ID, domain.StageSummary, i, total, msg); err != nil {
			return stageDone, err
		}

		var summaryText string
		var name string
		res, err := e.withRetry(ctx, job.ID, fmt.Sprintf("summary #%d", id), func() error {
			d, err := e.catalog.GetDetails(ctx, id)
			if err != nil {
				return err
			}
			name = d.Name
			text, err := e.gemini.GenerateSummary(ctx, buildSummaryPrompt(template, d, job.Region))
			if err != nil {
				return err
			}
			summaryText = text
			return nil
		})
		if res == stageInterrupted {
			return stageInterrupted, err
		}
		if err != nil {
			return stageDone, err
		}

		// A pause or cancel issued while the provider call was in flight
		// wins: the response is discarded, not persisted.
		if intr, err := e.interrupted(ctx, job.ID); err != nil || intr {
			return stageInterrupted, err
		}

		if err := e.summaries.Upsert(ctx, &domain.Summary{
			ID:           id,
			Name:         name,
			Summary:      summaryText,
			Region:       job.Region,
			GenerationID: job.GenerationID,
		}); err != nil {
			return stageDone, fmt.Errorf("save summary #%d: %w", id, err)
		}

		msg = fmt.Sprintf("Saved summary for #%d", id)
		if err := e.jobs.SetProgress(ctx, job.ID, domain.StageSummary, i+1, total, msg); err != nil {
			return stageDone, err
		}

		// No cooldown after the last entry.
		if i < total-1 {
			res, err := e.cooldown(ctx, job.ID, e.cfg.SummaryCooldown)
			if err != nil {
				return stageInterrupted, err
			}
			if res == stageInterrupted {
				return stageInterrupted, nil
			}
		}
	}

	return stageDone, nil
}
