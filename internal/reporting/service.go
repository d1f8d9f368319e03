package reporting

import (
	"context"
	"errors"

	"ai-calling-agent/internal/calls"
)

// Source is the read side of the call tracker.
type Source interface {
	Records(ctx context.Context) ([]calls.CallRecord, error)
}

type Service struct {
	src Source
}

func NewService(src Source) *Service { return &Service{src: src} }

// CallsSummary counts calls by status.
// The average duration only covers calls that reported one.
func (s *Service) CallsSummary(ctx context.Context) (CallsSummary, error) {
	if s.src == nil {
		return CallsSummary{}, errors.New("reporting: source not configured")
	}

	rows, err := s.src.Records(ctx)
	if err != nil {
		return CallsSummary{}, err
	}

	var out CallsSummary
	timed := 0
	for _, c := range rows {
		out.TotalCalls++
		if c.Duration > 0 {
			out.TotalDurationSeconds += c.Duration
			timed++
		}
		switch c.Status {
		case calls.StatusInitiated:
			out.InitiatedCalls++
		case calls.StatusInProgress:
			out.InProgressCalls++
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		case calls.StatusEnded:
			out.EndedCalls++
		}
	}
	if timed > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / timed
	}
	if terminal := out.CompletedCalls + out.FailedCalls + out.EndedCalls; terminal > 0 {
		out.CompletionRate = float64(out.CompletedCalls) / float64(terminal)
	}
	return out, nil
}
