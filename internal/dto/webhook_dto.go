package dto

// StripeWebhook is the event envelope Stripe posts to /webhook.
type StripeWebhook struct {
	ID   string            `json:"id"`
	Type string            `json:"type"`
	Data StripeWebhookData `json:"data"`
}

type StripeWebhookData struct {
	Object StripeSubscription `json:"object"`
}

type StripeSubscription struct {
	ID               string                     `json:"id"`
	Status           string                     `json:"status"`
	CurrentPeriodEnd int64                      `json:"current_period_end"`
	Metadata         StripeSubscriptionMetadata `json:"metadata"`
}

type StripeSubscriptionMetadata struct {
	UserID string `json:"userId"`
}
