package calls

import (
	"strings"
	"time"
)

// CallRecord is one outbound call attempt and its lifecycle state.
//
// Invariants:
// - CallID, PhoneNumber, Purpose and CreatedAt never change after creation.
// - Status only moves forward; see Status.
// - CompletedAt is nil until a terminal status is reached.
// - Error is set only when Status is failed.
type CallRecord struct {
	CallID      string `json:"call_id"`
	PhoneNumber string `json:"phone_number"`
	Purpose     string `json:"purpose"`

	Status Status `json:"status"`

	Transcript []Turn `json:"transcript"`

	// Duration is the call duration in seconds; 0 until completion.
	Duration int `json:"duration"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error string `json:"error,omitempty"`
}

// Turn is one line of a call transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Status of a call.
//
//	initiated -> in-progress -> completed | failed
//	any       -> ended (explicit end request)
type Status string

const (
	StatusInitiated  Status = "initiated"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusEnded      Status = "ended"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusEnded:
		return true
	default:
		return false
	}
}

// HistoryRecord is the flattened view served by the history endpoint.
type HistoryRecord struct {
	CallID      string     `json:"call_id"`
	PhoneNumber string     `json:"phone_number"`
	Purpose     string     `json:"purpose"`
	Status      Status     `json:"status"`
	Duration    int        `json:"duration"`
	Transcript  string     `json:"transcript,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// History flattens the transcript into "Speaker: text" lines.
func (r CallRecord) History() HistoryRecord {
	lines := make([]string, 0, len(r.Transcript))
	for _, t := range r.Transcript {
		lines = append(lines, t.Speaker+": "+t.Text)
	}
	return HistoryRecord{
		CallID:      r.CallID,
		PhoneNumber: r.PhoneNumber,
		Purpose:     r.Purpose,
		Status:      r.Status,
		Duration:    r.Duration,
		Transcript:  strings.Join(lines, "\n"),
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
}

// clone returns a deep copy so callers never share memory with the store.
func (r CallRecord) clone() CallRecord {
	out := r
	if r.Transcript != nil {
		out.Transcript = make([]Turn, len(r.Transcript))
		copy(out.Transcript, r.Transcript)
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
