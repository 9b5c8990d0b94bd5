package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Preferred writing styles shown in the profile editor.
const (
	StyleTechnical = "technical"
	StyleVisionary = "visionary"
	StyleCasual    = "casual"
)

// Subscription statuses written by the Stripe webhook.
const (
	SubscriptionInactive = "inactive"
	SubscriptionActive   = "active"
)

// User is the account plus profile record. Profile fields (name, company,
// writing style, settings) are written only by the owning user; subscription
// fields are written only by the webhook handler. No field belongs to both
// writers, so the two sides never conflict.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password     string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"size:255" json:"name"`
	Company      string    `gorm:"size:255" json:"company"`
	WritingStyle string    `gorm:"size:20;default:'technical'" json:"preferred_writing_style"`

	SubscriptionStatus    string     `gorm:"size:20;not null;default:'inactive'" json:"subscription_status"`
	SubscriptionID        string     `gorm:"size:255;index" json:"subscription_id"`
	SubscriptionPeriodEnd *time.Time `json:"subscription_period_end"`

	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`
	MarketingEmails    bool `gorm:"default:false" json:"marketing_emails"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidWritingStyle reports whether s is one of the supported styles.
func ValidWritingStyle(s string) bool {
	switch s {
	case StyleTechnical, StyleVisionary, StyleCasual:
		return true
	}
	return false
}
