package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/data/repos/testutil"
	"github.com/yungbote/fieldlog-backend/internal/domain"
	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
)

func newJobService(t *testing.T) JobService {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	return NewJobService(log, repos.NewJobRepo(gdb, log))
}

func TestCreateNormalizesIDs(t *testing.T) {
	svc := newJobService(t)

	job, err := svc.Create(context.Background(), CreateJobInput{
		Mode:         "FULL",
		GenerationID: 1,
		Region:       "kanto",
		PokemonIDs:   []int{7, 3, 7, 1, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7}, []int(job.PokemonIDs))
	assert.Equal(t, 3, job.Total)
	assert.Equal(t, domain.StatusQueued, job.Status)
	assert.Equal(t, domain.StageSummary, job.Stage)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := newJobService(t)

	cases := []struct {
		name string
		in   CreateJobInput
	}{
		{"bad mode", CreateJobInput{Mode: "SOMETIMES", PokemonIDs: []int{1}}},
		{"empty ids", CreateJobInput{Mode: "FULL"}},
		{"non-positive id", CreateJobInput{Mode: "FULL", PokemonIDs: []int{1, 0}}},
		{"negative id", CreateJobInput{Mode: "FULL", PokemonIDs: []int{-4}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			require.Error(t, err)
			kind, ok := errs.KindOf(err)
			require.True(t, ok, "expected a tagged error")
			assert.Equal(t, errs.KindValidation, kind)
		})
	}
}

func TestCodexServicePromptValidation(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewCodexService(log,
		repos.NewSummaryRepo(gdb, log),
		repos.NewAudioLogRepo(gdb, log),
		repos.NewPromptRepo(gdb, log),
	)

	err := svc.SetPrompt(context.Background(), "haiku", "content")
	require.Error(t, err)

	err = svc.SetPrompt(context.Background(), domain.PromptTypeSummary, "   ")
	require.Error(t, err)

	require.NoError(t, svc.SetPrompt(context.Background(), domain.PromptTypeSummary, "custom template"))
	p, err := svc.GetPrompt(context.Background(), domain.PromptTypeSummary)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "custom template", p.Content)

	require.NoError(t, svc.DeletePrompt(context.Background(), domain.PromptTypeSummary))
	p, err = svc.GetPrompt(context.Background(), domain.PromptTypeSummary)
	require.NoError(t, err)
	assert.Nil(t, p)
}
