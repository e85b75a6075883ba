package domain

import "time"

// AudioFormatPCM is the canonical stored audio format: raw 16-bit signed
// little-endian mono PCM, base64-encoded, with SampleRate set.
const AudioFormatPCM = "pcm_s16le"

// Summary is the AI-authored field log text for one catalog entry.
type Summary struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:name" json:"name"`
	Summary      string    `gorm:"column:summary;type:text" json:"summary"`
	Region       string    `gorm:"column:region" json:"region"`
	GenerationID int       `gorm:"column:generation_id;index" json:"generation_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Summary) TableName() string { return "summaries" }

// AudioLog is the spoken rendition of a summary. Bitrate is only set for
// compressed formats; the engine writes PCM with SampleRate.
type AudioLog struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:name" json:"name"`
	Region       string    `gorm:"column:region" json:"region"`
	GenerationID int       `gorm:"column:generation_id;index" json:"generation_id"`
	Voice        string    `gorm:"column:voice" json:"voice"`
	AudioBase64  string    `gorm:"column:audio_base64;type:text" json:"audio_base64"`
	AudioFormat  string    `gorm:"column:audio_format" json:"audio_format"`
	SampleRate   int       `gorm:"column:sample_rate" json:"sample_rate,omitempty"`
	Bitrate      int       `gorm:"column:bitrate" json:"bitrate,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (AudioLog) TableName() string { return "audio_logs" }

const (
	PromptTypeSummary = "summary"
	PromptTypeTTS     = "tts"
)

// Prompt is an operator override for one of the built-in prompt templates.
type Prompt struct {
	Type      string    `gorm:"primaryKey" json:"type"`
	Content   string    `gorm:"column:content;type:text" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Prompt) TableName() string { return "prompts" }
