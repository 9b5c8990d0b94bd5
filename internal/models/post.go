package models

import (
	"time"

	"github.com/google/uuid"
)

// Post statuses. The lifecycle moves draft -> ready_for_review -> published.
// Published is not terminal: the record stays editable (see DESIGN.md).
const (
	StatusDraft          = "draft"
	StatusReadyForReview = "ready_for_review"
	StatusPublished      = "published"
)

// Post tones offered by the draft generator.
const (
	ToneProfessional  = "professional"
	ToneEngaging      = "engaging"
	ToneControversial = "controversial"
)

// Post is a user-authored LinkedIn draft. UserID is set at creation and never
// reassigned. Version is an optimistic-concurrency token bumped on every
// mutating write.
type Post struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string    `gorm:"size:500;not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	Tone        string    `gorm:"size:20;not null;default:'professional'" json:"tone"`
	Status      string    `gorm:"size:20;not null;default:'draft'" json:"status"`
	EditorNotes string    `gorm:"type:text" json:"editor_notes"`
	Version     int       `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is a known post status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusReadyForReview, StatusPublished:
		return true
	}
	return false
}

// ValidTone reports whether s is a known post tone.
func ValidTone(s string) bool {
	switch s {
	case ToneProfessional, ToneEngaging, ToneControversial:
		return true
	}
	return false
}
