package jobs

import (
	"time"

	"github.com/yungbote/fieldlog-backend/internal/clients/gemini"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
	"github.com/yungbote/fieldlog-backend/internal/utils"
)

// Config tunes the engine. Production uses DefaultConfig; tests shrink the
// durations so scenarios run in milliseconds.
type Config struct {
	// Concurrency caps per stage across the whole process.
	MaxTextJobs  int
	MaxAudioJobs int

	// Cooldown bases; actual sleeps are jittered to 80-120% of these.
	SummaryCooldown time.Duration
	AudioCooldown   time.Duration

	// Per-step retry on top of the provider client's own retry.
	StageMaxAttempts int
	StageRetryBase   time.Duration

	// TTS batching limits.
	MaxBatchEntries int
	TTSMaxChars     int

	// PollSlice bounds how long a sleeping job takes to notice a pause or
	// cancel. TickInterval drives the scheduler claim loop.
	PollSlice    time.Duration
	TickInterval time.Duration

	// SampleRate of provider PCM, used by the splitter and stored rows.
	SampleRate int

	// SpriteDir, when set, prefetches artwork for each job's ids.
	SpriteDir string
}

func DefaultConfig(log *logger.Logger) Config {
	return Config{
		MaxTextJobs:      utils.GetEnvAsInt("MAX_TEXT_JOBS", 3, log),
		MaxAudioJobs:     utils.GetEnvAsInt("MAX_AUDIO_JOBS", 1, log),
		SummaryCooldown:  15 * time.Second,
		AudioCooldown:    300 * time.Second,
		StageMaxAttempts: 3,
		StageRetryBase:   5 * time.Second,
		MaxBatchEntries:  15,
		TTSMaxChars:      utils.GetEnvAsInt("TTS_MAX_CHARS", 4000, log),
		PollSlice:        1 * time.Second,
		TickInterval:     1 * time.Second,
		SampleRate:       gemini.TTSSampleRate,
		SpriteDir:        utils.GetEnv("SPRITE_DIR", "", log),
	}
}
