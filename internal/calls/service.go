package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ai-calling-agent/internal/metrics"
	"ai-calling-agent/internal/telephony"
	"ai-calling-agent/pkg/logger"

	"github.com/google/uuid"
)

const callIDPrefix = "call_"

// Service tracks call lifecycles and runs background processing per call.
//
// Each started call gets its own goroutine and cancel handle, keyed by call_id.
// End cancels the handle; Shutdown cancels all of them and waits.
type Service struct {
	repo   Repository
	dialer telephony.Dialer
	log    *slog.Logger

	clock func() time.Time
	newID func() string

	baseCtx context.Context
	stop    context.CancelFunc

	mu      sync.Mutex
	running map[string]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

func NewService(repo Repository, dialer telephony.Dialer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Service{
		repo:    repo,
		dialer:  dialer,
		log:     log,
		clock:   time.Now,
		newID:   newCallID,
		baseCtx: ctx,
		stop:    stop,
		running: map[string]context.CancelFunc{},
	}
}

func newCallID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return callIDPrefix + hex[:12]
}

// Create allocates a new record in the initiated state and returns its id.
func (s *Service) Create(ctx context.Context, phoneNumber, purpose string) (string, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return "", fmt.Errorf("%w: phone_number required", ErrInvalidArgument)
	}

	rec := CallRecord{
		CallID:      s.newID(),
		PhoneNumber: phoneNumber,
		Purpose:     purpose,
		Status:      StatusInitiated,
		Transcript:  []Turn{},
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return "", fmt.Errorf("calls: create session: %w", err)
	}

	metrics.CallsInitiated.Inc()
	s.logFor(ctx).Info("call session created", "call_id", rec.CallID)
	return rec.CallID, nil
}

// Initiate creates a call and schedules its processing. When processing
// cannot be scheduled the record is marked failed and the error returned.
func (s *Service) Initiate(ctx context.Context, phoneNumber, purpose string) (string, error) {
	callID, err := s.Create(ctx, phoneNumber, purpose)
	if err != nil {
		return "", err
	}
	if err := s.Start(ctx, callID); err != nil {
		s.abandon(ctx, callID, err)
		return callID, err
	}
	return callID, nil
}

func (s *Service) abandon(ctx context.Context, callID string, cause error) {
	_, err := s.repo.Update(context.WithoutCancel(ctx), callID, func(r *CallRecord) error {
		if r.Status != StatusInitiated {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusFailed)
		}
		now := s.clock().UTC()
		r.Status = StatusFailed
		r.Error = cause.Error()
		r.CompletedAt = &now
		return nil
	})
	if err != nil {
		return
	}
	metrics.CallsFinished.WithLabelValues(string(StatusFailed)).Inc()
	s.logFor(ctx).Warn("call not started", "call_id", callID, "err", cause)
}

// Start schedules Process on a background goroutine and returns immediately.
// The caller polls Get to observe progress.
func (s *Service) Start(ctx context.Context, callID string) error {
	if _, err := s.repo.Get(ctx, callID); err != nil {
		return err
	}

	pctx, cancel := context.WithCancel(s.baseCtx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return ErrShuttingDown
	}
	if _, ok := s.running[callID]; ok {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("%w: call %s already processing", ErrInvalidTransition, callID)
	}
	s.running[callID] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	log := s.log
	go func() {
		defer s.wg.Done()
		defer s.forget(callID)
		defer cancel()

		if err := s.Process(logger.With(pctx, log), callID); err != nil {
			log.Warn("call processing stopped", "call_id", callID, "err", err)
		}
	}()
	return nil
}

// Process drives one call from initiated to completed or failed.
//
// Unknown ids return ErrNotFound. Dialer errors and panics mark the call
// failed; there is no retry. A call ended while processing keeps its ended status.
func (s *Service) Process(ctx context.Context, callID string) error {
	log := s.logFor(ctx).With("call_id", callID)

	rec, err := s.repo.Update(ctx, callID, func(r *CallRecord) error {
		if r.Status != StatusInitiated {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusInProgress)
		}
		r.Status = StatusInProgress
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("process requested for unknown call")
		}
		return err
	}

	metrics.CallsActive.Inc()
	defer metrics.CallsActive.Dec()
	start := time.Now()
	defer func() { metrics.CallProcessingDuration.Observe(time.Since(start).Seconds()) }()

	log.Debug("call in progress")
	res, dialErr := s.dial(ctx, rec)

	final, err := s.repo.Update(context.WithoutCancel(ctx), callID, func(r *CallRecord) error {
		if r.Status != StatusInProgress {
			return fmt.Errorf("%w: %s -> finished", ErrInvalidTransition, r.Status)
		}
		now := s.clock().UTC()
		r.CompletedAt = &now
		if dialErr != nil {
			r.Status = StatusFailed
			r.Error = dialErr.Error()
			return nil
		}
		r.Status = StatusCompleted
		r.Transcript = toTurns(res.Transcript)
		r.Duration = res.DurationSeconds
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Ended while the dialer was running; the end request wins.
			log.Info("call finished after external end", "dial_err", dialErr)
			return nil
		}
		return err
	}

	metrics.CallsFinished.WithLabelValues(string(final.Status)).Inc()
	if final.Status == StatusFailed {
		log.Error("call failed", "err", dialErr)
		return nil
	}
	log.Info("call completed", "duration", final.Duration)
	return nil
}

func (s *Service) dial(ctx context.Context, rec CallRecord) (res telephony.DialResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("dialer panic: %v", p)
		}
	}()
	if s.dialer == nil {
		return telephony.DialResult{}, errors.New("no dialer configured")
	}
	return s.dialer.Dial(ctx, telephony.DialRequest{
		CallID:      rec.CallID,
		PhoneNumber: rec.PhoneNumber,
		Purpose:     rec.Purpose,
	})
}

func toTurns(in []telephony.Utterance) []Turn {
	out := make([]Turn, 0, len(in))
	for _, u := range in {
		out = append(out, Turn{Speaker: u.Speaker, Text: u.Text})
	}
	return out
}

// Get returns a snapshot of the call record.
func (s *Service) Get(ctx context.Context, callID string) (CallRecord, error) {
	return s.repo.Get(ctx, callID)
}

// Transcript returns the call's transcript, empty until processing completes.
func (s *Service) Transcript(ctx context.Context, callID string) ([]Turn, error) {
	rec, err := s.repo.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if rec.Transcript == nil {
		return []Turn{}, nil
	}
	return rec.Transcript, nil
}

// End force-transitions a call to ended and cancels its processing.
// It reports false only when the call is unknown. Ending a completed call is allowed.
func (s *Service) End(ctx context.Context, callID string) bool {
	var prev Status
	_, err := s.repo.Update(ctx, callID, func(r *CallRecord) error {
		prev = r.Status
		now := s.clock().UTC()
		r.Status = StatusEnded
		r.CompletedAt = &now
		r.Error = ""
		return nil
	})
	if err != nil {
		return false
	}

	s.mu.Lock()
	cancel, ok := s.running[callID]
	s.mu.Unlock()
	if ok {
		cancel()
	}

	// Only the first terminal transition is counted.
	if !prev.IsTerminal() {
		metrics.CallsFinished.WithLabelValues(string(StatusEnded)).Inc()
	}
	s.logFor(ctx).Info("call ended", "call_id", callID, "previous_status", prev, "was_processing", ok)
	return true
}

// History returns the most recent limit calls in insertion order.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be >= 1", ErrInvalidArgument)
	}
	recs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.History())
	}
	return out, nil
}

// Records returns every stored call in insertion order.
func (s *Service) Records(ctx context.Context) ([]CallRecord, error) {
	return s.repo.List(ctx, 0)
}

// Processing reports how many background processors are running.
func (s *Service) Processing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

// Shutdown cancels all in-flight processing and waits for it to stop.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) logFor(ctx context.Context) *slog.Logger {
	return logger.FromOr(ctx, s.log)
}

func (s *Service) forget(callID string) {
	s.mu.Lock()
	delete(s.running, callID)
	s.mu.Unlock()
}
