package telephony

import "context"

// Dialer places an outbound call and reports what happened on it.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Dial blocks until the call reaches a terminal state or ctx is done.
// - Keep request/result types provider-agnostic.
type Dialer interface {
	Name() string
	HealthCheck(ctx context.Context) error

	Dial(ctx context.Context, req DialRequest) (DialResult, error)
}

// DialRequest describes the call to place.
type DialRequest struct {
	// CallID is the internal call identifier.
	CallID string `json:"call_id"`

	// PhoneNumber is the destination, E.164 where possible.
	PhoneNumber string `json:"phone_number"`
	Purpose     string `json:"purpose"`
}

// DialResult is the provider-agnostic outcome of a completed call.
type DialResult struct {
	Transcript []Utterance `json:"transcript"`

	// DurationSeconds is the talk time reported by the provider.
	DurationSeconds int `json:"duration_seconds"`
}

// Utterance is one line spoken on the call.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

const (
	SpeakerAI   = "AI"
	SpeakerUser = "User"
)
