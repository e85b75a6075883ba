package jobs

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/yungbote/fieldlog-backend/internal/audio"
	"github.com/yungbote/fieldlog-backend/internal/domain"
	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
)

// runAudioStage batches the job's saved summaries into TTS requests, splits
// each synthesized blob back into per-entry clips, and persists one audio log
// per entry. The cursor counts batches, not entries.
func (e *Engine) runAudioStage(ctx context.Context, job *domain.Job) (stageResult, error) {
	template, err := e.prompts.GetContent(ctx, domain.PromptTypeTTS, defaultTTSPrompt)
	if err != nil {
		return stageDone, fmt.Errorf("load tts prompt: %w", err)
	}

	ids := []int(job.PokemonIDs)
	saved, err := e.summaries.GetByIDs(ctx, ids)
	if err != nil {
		return stageDone, fmt.Errorf("load summaries: %w", err)
	}
	byID := make(map[int]*domain.Summary, len(saved))
	for _, s := range saved {
		byID[s.ID] = s
	}

	entries := make([]BatchEntry, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return stageDone, errs.Precondition("Missing saved summary for #%d", id)
		}
		entries = append(entries, BatchEntry{ID: s.ID, Name: s.Name, Text: s.Summary})
	}

	batches := BuildBatches(entries, e.cfg.MaxBatchEntries, e.cfg.TTSMaxChars)
	totalBatches := len(batches)

	// The cursor counts batches from here on, so total becomes the batch count.
	if err := e.jobs.SetProgress(ctx, job.ID, domain.StageAudio, job.Current, totalBatches, "Starting audio synthesis..."); err != nil {
		return stageDone, err
	}

	for b := job.Current; b < totalBatches; b++ {
		intr, err := e.interrupted(ctx, job.ID)
		if err != nil {
			return stageInterrupted, err
		}
		if intr {
			return stageInterrupted, nil
		}

		batch := batches[b]
		msg := fmt.Sprintf("Synthesizing audio for batch %d/%d...", b+1, totalBatches)
		if err := e.jobs.SetProgress(ctx, job.ID, domain.StageAudio, b, totalBatches, msg); err != nil {
			return stageDone, err
		}

		var pcm []byte
		res, err := e.withRetry(ctx, job.ID, fmt.Sprintf("tts batch %d/%d", b+1, totalBatches), func() error {
			out, err := e.gemini.GenerateTTS(ctx, buildTTSPrompt(template, batch), job.Voice)
			if err != nil {
				return err
			}
			pcm = out
			return nil
		})
		if res == stageInterrupted {
			return stageInterrupted, err
		}
		if err != nil {
			return stageDone, err
		}

		// A pause or cancel issued while the synthesis call was in flight
		// wins: the response is discarded, not persisted.
		if intr, err := e.interrupted(ctx, job.ID); err != nil || intr {
			return stageInterrupted, err
		}

		if err := e.saveBatchAudio(ctx, job, batch, pcm); err != nil {
			return stageDone, err
		}

		msg = fmt.Sprintf("Saved audio logs for batch %d/%d", b+1, totalBatches)
		if err := e.jobs.SetProgress(ctx, job.ID, domain.StageAudio, b+1, totalBatches, msg); err != nil {
			return stageDone, err
		}

		if b < totalBatches-1 {
			res, err := e.cooldown(ctx, job.ID, e.cfg.AudioCooldown)
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

// saveBatchAudio splits the batch PCM into per-entry clips and upserts one
// audio log per entry. When the splitter cannot find enough gaps, every entry
// in the batch gets the whole blob rather than losing audio.
func (e *Engine) saveBatchAudio(ctx context.Context, job *domain.Job, batch []BatchEntry, pcm []byte) error {
	clips := audio.Split(pcm, e.cfg.SampleRate, len(batch))
	if len(clips) != len(batch) {
		e.log.Warn("Splitter clip count mismatch, storing whole batch audio per entry",
			"job_id", job.ID,
			"expected", len(batch),
			"got", len(clips),
		)
		clips = make([][]byte, len(batch))
		for i := range clips {
			clips[i] = pcm
		}
	}

	for i, entry := range batch {
		if err := e.audioLogs.Upsert(ctx, &domain.AudioLog{
			ID:           entry.ID,
			Name:         entry.Name,
			Region:       job.Region,
			GenerationID: job.GenerationID,
			Voice:        job.Voice,
			AudioBase64:  base64.StdEncoding.EncodeToString(clips[i]),
			AudioFormat:  domain.AudioFormatPCM,
			SampleRate:   e.cfg.SampleRate,
		}); err != nil {
			return fmt.Errorf("save audio log #%d: %w", entry.ID, err)
		}
	}
	return nil
}
