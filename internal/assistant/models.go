package assistant

import "time"

// Message is one prior turn supplied by the caller.
// The service is stateless; clients resend history on every request.
type Message struct {
	Role      string `json:"role" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ConversationRequest struct {
	Message string         `json:"message" binding:"required,min=1"`
	History []Message      `json:"history" binding:"omitempty,dive"`
	Context map[string]any `json:"context"`
}

type ConversationResponse struct {
	Response   string    `json:"response"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

type Sentiment struct {
	Sentiment  SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`
}

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)
