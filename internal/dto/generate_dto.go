package dto

type GenerateRequest struct {
	Topic    string `json:"topic"`
	Tone     string `json:"tone"`
	Industry string `json:"industry"`
}

type GenerateResponse struct {
	Content string `json:"content"`
}
