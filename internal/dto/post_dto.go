package dto

import "time"

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tone    string `json:"tone"`
}

// UpdatePostRequest is a partial update: nil fields are left untouched.
// ExpectedVersion, when set, makes the write conditional on the stored
// version (409 on mismatch).
type UpdatePostRequest struct {
	Content         *string `json:"content"`
	Status          *string `json:"status"`
	EditorNotes     *string `json:"editor_notes"`
	ExpectedVersion *int    `json:"expected_version"`
}

type PushContentRequest struct {
	Content string `json:"content"`
}

type SessionStateResponse struct {
	PostID      string     `json:"post_id"`
	Dirty       bool       `json:"dirty"`
	LastSavedAt *time.Time `json:"last_saved_at"`
	LastError   string     `json:"last_error,omitempty"`
}
