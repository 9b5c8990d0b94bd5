package services

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/models"
	"gorm.io/gorm"
)

var ErrInvalidWebhookPayload = errors.New("invalid webhook payload")

// SubscriptionService applies Stripe subscription lifecycle events to user
// profiles. Every handler re-asserts the state derived from the event, so
// redelivered events are harmless.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

func (s *SubscriptionService) HandleStripeEvent(event *dto.StripeWebhook) error {
	if event.Type == "" {
		return ErrInvalidWebhookPayload
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return s.applySubscription(&event.Data.Object)
	case "customer.subscription.deleted":
		return s.deactivateSubscription(&event.Data.Object)
	default:
		// Stripe sends many event types we don't care about. Acknowledge
		// them so it stops redelivering.
		return nil
	}
}

func (s *SubscriptionService) applySubscription(sub *dto.StripeSubscription) error {
	userID, err := s.resolveUser(sub)
	if err != nil {
		return err
	}
	if userID == uuid.Nil {
		return nil
	}

	status := models.SubscriptionInactive
	if sub.Status == "active" {
		status = models.SubscriptionActive
	}
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_status":     status,
			"subscription_id":         sub.ID,
			"subscription_period_end": periodEnd,
		}).Error
}

func (s *SubscriptionService) deactivateSubscription(sub *dto.StripeSubscription) error {
	userID, err := s.resolveUser(sub)
	if err != nil {
		return err
	}
	if userID == uuid.Nil {
		return nil
	}

	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("subscription_status", models.SubscriptionInactive).Error
}

// resolveUser maps the event's metadata userId to a stored user. Events
// without a userId are skipped, events for unknown users are rejected so the
// provider retries once the account exists.
func (s *SubscriptionService) resolveUser(sub *dto.StripeSubscription) (uuid.UUID, error) {
	if sub.Metadata.UserID == "" {
		slog.Warn("subscription event without userId metadata", "subscription_id", sub.ID)
		return uuid.Nil, nil
	}

	userID, err := uuid.Parse(sub.Metadata.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidWebhookPayload
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, err
	}

	return user.ID, nil
}
