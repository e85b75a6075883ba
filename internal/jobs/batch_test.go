package jobs

import (
	"strings"
	"testing"
)

func entryOfLen(id, n int) BatchEntry {
	return BatchEntry{ID: id, Name: "x", Text: strings.Repeat("a", n)}
}

func TestBuildBatchesEntryCap(t *testing.T) {
	var entries []BatchEntry
	for i := 1; i <= 35; i++ {
		entries = append(entries, entryOfLen(i, 10))
	}
	batches := BuildBatches(entries, 15, 0)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches (15+15+5), got %d", len(batches))
	}
	if len(batches[0]) != 15 || len(batches[1]) != 15 || len(batches[2]) != 5 {
		t.Fatalf("unexpected batch sizes %d/%d/%d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	// Order preserved across batch boundaries.
	if batches[1][0].ID != 16 || batches[2][0].ID != 31 {
		t.Fatalf("batching reordered entries")
	}
}

func TestBuildBatchesCharCap(t *testing.T) {
	entries := []BatchEntry{
		entryOfLen(1, 1800),
		entryOfLen(2, 1800),
		entryOfLen(3, 1800),
	}
	batches := BuildBatches(entries, 15, 4000)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches under the char cap, got %d", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[1]) != 1 {
		t.Fatalf("unexpected batch sizes %d/%d", len(batches[0]), len(batches[1]))
	}
}

func TestBuildBatchesOversizedEntryGetsOwnBatch(t *testing.T) {
	entries := []BatchEntry{
		entryOfLen(1, 100),
		entryOfLen(2, 9000),
		entryOfLen(3, 100),
	}
	batches := BuildBatches(entries, 15, 4000)
	if len(batches) != 3 {
		t.Fatalf("oversized entry should isolate itself, got %d batches", len(batches))
	}
	if len(batches[1]) != 1 || batches[1][0].ID != 2 {
		t.Fatalf("oversized entry not isolated")
	}
}

func TestBuildTTSPromptSeparatesEntries(t *testing.T) {
	entries := []BatchEntry{
		{ID: 1, Name: "a", Text: "First note."},
		{ID: 2, Name: "b", Text: "Second note."},
	}
	prompt := buildTTSPrompt(defaultTTSPrompt, entries)
	if strings.Count(prompt, pauseMarker) != 1 {
		t.Fatalf("expected exactly one pause marker between two entries")
	}
	if !strings.Contains(prompt, "First note.") || !strings.Contains(prompt, "Second note.") {
		t.Fatalf("prompt missing entry text")
	}
	if strings.Index(prompt, "First note.") > strings.Index(prompt, "Second note.") {
		t.Fatalf("prompt lost entry order")
	}
}
