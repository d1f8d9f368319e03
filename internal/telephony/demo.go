package telephony

import (
	"context"
	"time"
)

const (
	DefaultDemoDelay    = 2 * time.Second
	DefaultDemoDuration = 120
)

// DefaultDemoScript is the fixed conversation every demo call produces.
var DefaultDemoScript = []Utterance{
	{Speaker: SpeakerAI, Text: "Hello, this is AI assistant. How can I help you?"},
	{Speaker: SpeakerUser, Text: "I'd like to book an appointment."},
	{Speaker: SpeakerAI, Text: "Sure, I can help with that. What date works for you?"},
}

// DemoDialer simulates a telephony provider: it waits Delay, then returns Script.
// The wait is where a real adapter would hand the call to the provider and
// block on its status callback.
type DemoDialer struct {
	Delay           time.Duration
	Script          []Utterance
	DurationSeconds int
}

func NewDemoDialer(delay time.Duration) *DemoDialer {
	return &DemoDialer{
		Delay:           delay,
		Script:          DefaultDemoScript,
		DurationSeconds: DefaultDemoDuration,
	}
}

func (d *DemoDialer) Name() string { return "demo" }

func (d *DemoDialer) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (d *DemoDialer) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	if d.Delay > 0 {
		t := time.NewTimer(d.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return DialResult{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return DialResult{}, err
	}

	transcript := make([]Utterance, len(d.Script))
	copy(transcript, d.Script)
	return DialResult{
		Transcript:      transcript,
		DurationSeconds: d.DurationSeconds,
	}, nil
}
