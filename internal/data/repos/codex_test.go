package repos

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/fieldlog-backend/internal/data/repos/testutil"
	"github.com/yungbote/fieldlog-backend/internal/domain"
)

func TestSummaryRepoUpsertPreservesCreatedAt(t *testing.T) {
	repo := NewSummaryRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	first := &domain.Summary{
		ID:           25,
		Name:         "pikachu",
		Summary:      "Observed near the power plant.",
		Region:       "Kanto",
		GenerationID: 1,
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	created := first.CreatedAt

	time.Sleep(5 * time.Millisecond)
	second := &domain.Summary{
		ID:           25,
		Name:         "pikachu",
		Summary:      "Revised field notes.",
		Region:       "Kanto",
		GenerationID: 1,
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	got, err := repo.GetByID(ctx, 25)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, got)
	}
	if got.Summary != "Revised field notes." {
		t.Fatalf("summary not replaced: %q", got.Summary)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed on upsert: %v -> %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("updated_at not refreshed: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestSummaryRepoGetByIDs(t *testing.T) {
	repo := NewSummaryRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	for _, id := range []int{3, 1, 2} {
		if err := repo.Upsert(ctx, &domain.Summary{ID: id, Name: "n", Summary: "s", Region: "Kanto", GenerationID: 1}); err != nil {
			t.Fatalf("Upsert %d: %v", id, err)
		}
	}
	rows, err := repo.GetByIDs(ctx, []int{1, 2, 3, 99})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []int{1, 2, 3} {
		if rows[i].ID != want {
			t.Fatalf("row %d: expected id %d, got %d", i, want, rows[i].ID)
		}
	}

	missing, err := repo.GetByID(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("missing id: expected nil,nil got %v,%v", missing, err)
	}
}

func TestAudioLogRepoUpsert(t *testing.T) {
	repo := NewAudioLogRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	row := &domain.AudioLog{
		ID:           7,
		Name:         "squirtle",
		Region:       "Kanto",
		GenerationID: 1,
		Voice:        "Kore",
		AudioBase64:  "AAAA",
		AudioFormat:  domain.AudioFormatPCM,
		SampleRate:   24000,
	}
	if err := repo.Upsert(ctx, row); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	created := row.CreatedAt

	replacement := &domain.AudioLog{
		ID:           7,
		Name:         "squirtle",
		Region:       "Kanto",
		GenerationID: 1,
		Voice:        "Puck",
		AudioBase64:  "BBBB",
		AudioFormat:  domain.AudioFormatPCM,
		SampleRate:   24000,
	}
	if err := repo.Upsert(ctx, replacement); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	got, err := repo.GetByID(ctx, 7)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, got)
	}
	if got.AudioBase64 != "BBBB" || got.Voice != "Puck" {
		t.Fatalf("row not replaced: audio=%q voice=%q", got.AudioBase64, got.Voice)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed on upsert")
	}

	byGen, err := repo.ListByGeneration(ctx, 1)
	if err != nil || len(byGen) != 1 {
		t.Fatalf("ListByGeneration: err=%v len=%d", err, len(byGen))
	}
}

func TestPromptRepoFallback(t *testing.T) {
	repo := NewPromptRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	content, err := repo.GetContent(ctx, domain.PromptTypeSummary, "default prompt")
	if err != nil || content != "default prompt" {
		t.Fatalf("fallback: content=%q err=%v", content, err)
	}

	if err := repo.Upsert(ctx, &domain.Prompt{Type: domain.PromptTypeSummary, Content: "custom prompt"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	content, err = repo.GetContent(ctx, domain.PromptTypeSummary, "default prompt")
	if err != nil || content != "custom prompt" {
		t.Fatalf("override: content=%q err=%v", content, err)
	}

	// Blank override falls back too.
	if err := repo.Upsert(ctx, &domain.Prompt{Type: domain.PromptTypeTTS, Content: "   "}); err != nil {
		t.Fatalf("Upsert blank: %v", err)
	}
	content, err = repo.GetContent(ctx, domain.PromptTypeTTS, "tts default")
	if err != nil || content != "tts default" {
		t.Fatalf("blank override: content=%q err=%v", content, err)
	}
}
