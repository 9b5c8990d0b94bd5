package dto

// UpdateProfileRequest carries the user-editable profile fields. Subscription
// fields are deliberately absent; only the webhook writes those.
type UpdateProfileRequest struct {
	Name         string `json:"name"`
	Company      string `json:"company"`
	WritingStyle string `json:"preferred_writing_style"`
}

type UpdateSettingsRequest struct {
	EmailNotifications *bool `json:"email_notifications"`
	MarketingEmails    *bool `json:"marketing_emails"`
}
