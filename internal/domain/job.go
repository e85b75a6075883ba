package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobMode string

const (
	JobModeFull        JobMode = "FULL"
	JobModeSummaryOnly JobMode = "SUMMARY_ONLY"
	JobModeAudioOnly   JobMode = "AUDIO_ONLY"
)

func (m JobMode) Valid() bool {
	switch m {
	case JobModeFull, JobModeSummaryOnly, JobModeAudioOnly:
		return true
	}
	return false
}

// InitialStage is audio only when the job skips summaries entirely.
func (m JobMode) InitialStage() JobStage {
	if m == JobModeAudioOnly {
		return StageAudio
	}
	return StageSummary
}

type JobStage string

const (
	StageSummary JobStage = "summary"
	StageAudio   JobStage = "audio"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusPaused    JobStatus = "paused"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCanceled  JobStatus = "canceled"
)

// Terminal statuses admit no further writes.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// Job is one batch request: a mode plus an ordered id list, walked by the
// summary and/or audio stage. Current is an id cursor during the summary
// stage and a batch cursor during the audio stage.
type Job struct {
	ID            uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	Mode          JobMode                  `gorm:"column:mode;not null" json:"mode"`
	GenerationID  int                      `gorm:"column:generation_id;not null;index" json:"generation_id"`
	Region        string                   `gorm:"column:region" json:"region"`
	Voice         string                   `gorm:"column:voice" json:"voice"`
	PokemonIDs    datatypes.JSONSlice[int] `gorm:"column:pokemon_ids" json:"pokemon_ids"`
	Total         int                      `gorm:"column:total;not null" json:"total"`
	Current       int                      `gorm:"column:current;not null;default:0" json:"current"`
	Stage         JobStage                 `gorm:"column:stage;not null;index" json:"stage"`
	Status        JobStatus                `gorm:"column:status;not null;index:idx_jobs_status_created,priority:1" json:"status"`
	Message       string                   `gorm:"column:message" json:"message"`
	CooldownUntil *time.Time               `gorm:"column:cooldown_until" json:"cooldown_until,omitempty"`
	Error         string                   `gorm:"column:error" json:"error,omitempty"`
	CreatedAt     time.Time                `gorm:"not null;index:idx_jobs_status_created,priority:2" json:"created_at"`
	UpdatedAt     time.Time                `gorm:"not null" json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }
