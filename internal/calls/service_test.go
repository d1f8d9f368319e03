package calls

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-calling-agent/internal/metrics"
	"ai-calling-agent/internal/telephony"
	"ai-calling-agent/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcDialer func(ctx context.Context, req telephony.DialRequest) (telephony.DialResult, error)

func (f funcDialer) Name() string { return "func" }
func (f funcDialer) HealthCheck(ctx context.Context) error { return nil }
func (f funcDialer) Dial(ctx context.Context, req telephony.DialRequest) (telephony.DialResult, error) {
	return f(ctx, req)
}

// blockingDialer holds every Dial until release is closed or ctx is done.
type blockingDialer struct {
	entered chan string
	release chan struct{}
}

func newBlockingDialer() *blockingDialer {
	return &blockingDialer{entered: make(chan string, 8), release: make(chan struct{})}
}

func (d *blockingDialer) Name() string { return "blocking" }
func (d *blockingDialer) HealthCheck(ctx context.Context) error { return nil }
func (d *blockingDialer) Dial(ctx context.Context, req telephony.DialRequest) (telephony.DialResult, error) {
	d.entered <- req.CallID
	select {
	case <-ctx.Done():
		return telephony.DialResult{}, ctx.Err()
	case <-d.release:
		return telephony.DialResult{Transcript: telephony.DefaultDemoScript, DurationSeconds: 120}, nil
	}
}

type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T, d telephony.Dialer) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo(100)
	svc := NewService(repo, d, logger.NewWithWriter(&bytes.Buffer{}, true))
	clock := &tickingClock{now: time.Unix(1700000000, 0).UTC()}
	svc.clock = clock.Now
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc, repo
}

func waitForStatus(t *testing.T, svc *Service, callID string, want Status) CallRecord {
	t.Helper()
	var rec CallRecord
	require.Eventually(t, func() bool {
		var err error
		rec, err = svc.Get(context.Background(), callID)
		return err == nil && rec.Status == want
	}, 2*time.Second, 5*time.Millisecond, "call %s never reached %s", callID, want)
	return rec
}

func TestCreate_InitiatedWithUniquePrefixedID(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := svc.Create(ctx, "+15550001111", "Customer support")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "call_"), id)
		assert.Len(t, id, len("call_")+12)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		rec, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusInitiated, rec.Status)
		assert.Empty(t, rec.Transcript)
		assert.Zero(t, rec.Duration)
		assert.Nil(t, rec.CompletedAt)
		assert.False(t, rec.CreatedAt.IsZero())
	}
}

func TestCreate_RequiresPhoneNumber(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	_, err := svc.Create(context.Background(), "  ", "x")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProcess_CompletesWithDemoScript(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()

	id, err := svc.Create(ctx, "+15550001111", "booking")
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, id))

	rec, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Len(t, rec.Transcript, 3)
	assert.Equal(t, Turn{Speaker: "AI", Text: "Hello, this is AI assistant. How can I help you?"}, rec.Transcript[0])
	assert.Equal(t, 120, rec.Duration)
	require.NotNil(t, rec.CompletedAt)
	assert.True(t, rec.CompletedAt.After(rec.CreatedAt))
	assert.Empty(t, rec.Error)

	turns, err := svc.Transcript(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rec.Transcript, turns)
}

func TestProcess_UnknownCallIsReported(t *testing.T) {
	svc, repo := newTestService(t, telephony.NewDemoDialer(0))
	require.ErrorIs(t, svc.Process(context.Background(), "call_missing"), ErrNotFound)
	assert.Zero(t, repo.Len())
}

func TestProcess_DialerErrorMarksFailed(t *testing.T) {
	svc, _ := newTestService(t, funcDialer(func(ctx context.Context, req telephony.DialRequest) (telephony.DialResult, error) {
		return telephony.DialResult{}, errors.New("carrier unreachable")
	}))
	ctx := context.Background()

	id, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Process(ctx, id))

	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "carrier unreachable", rec.Error)
	assert.NotNil(t, rec.CompletedAt)
	assert.Empty(t, rec.Transcript)
}

func TestProcess_DialerPanicMarksFailed(t *testing.T) {
	svc, _ := newTestService(t, funcDialer(func(ctx context.Context, req telephony.DialRequest) (telephony.DialResult, error) {
		panic("socket exploded")
	}))
	ctx := context.Background()

	id, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Process(ctx, id))

	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "socket exploded")
}

func TestProcess_RunsOnlyFromInitiated(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()

	id, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Process(ctx, id))
	require.ErrorIs(t, svc.Process(ctx, id), ErrInvalidTransition)

	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusCompleted, rec.Status)
}

func TestStart_ProcessesInBackground(t *testing.T) {
	d := newBlockingDialer()
	svc, _ := newTestService(t, d)
	ctx := context.Background()

	id, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Start(ctx, id))

	assert.Equal(t, id, <-d.entered)
	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusInProgress, rec.Status)
	assert.Equal(t, 1, svc.Processing())

	close(d.release)
	rec = waitForStatus(t, svc, id, StatusCompleted)
	assert.Len(t, rec.Transcript, 3)
	require.Eventually(t, func() bool { return svc.Processing() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStart_UnknownCall(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	require.ErrorIs(t, svc.Start(context.Background(), "call_missing"), ErrNotFound)
}

func TestEnd_CancelsProcessingAndKeepsEnded(t *testing.T) {
	d := newBlockingDialer()
	svc, _ := newTestService(t, d)
	ctx := context.Background()

	id, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Start(ctx, id))
	<-d.entered

	require.True(t, svc.End(ctx, id))
	require.Eventually(t, func() bool { return svc.Processing() == 0 }, time.Second, 5*time.Millisecond)

	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusEnded, rec.Status)
	assert.NotNil(t, rec.CompletedAt)
	assert.Empty(t, rec.Error)
}

func TestEnd_FromCompletedIsAllowed(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()

	id, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Process(ctx, id))
	require.True(t, svc.End(ctx, id))

	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusEnded, rec.Status)
	assert.Len(t, rec.Transcript, 3)
}

func TestEnd_UnknownCallHasNoSideEffects(t *testing.T) {
	svc, repo := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()
	id, _ := svc.Create(ctx, "+1", "x")

	assert.False(t, svc.End(ctx, "call_missing"))
	assert.Equal(t, 1, repo.Len())
	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusInitiated, rec.Status)
}

func TestEnd_CountsOnlyFirstTerminalTransition(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()
	finished := func(st Status) float64 {
		return testutil.ToFloat64(metrics.CallsFinished.WithLabelValues(string(st)))
	}
	completed0, ended0 := finished(StatusCompleted), finished(StatusEnded)

	done, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Process(ctx, done))
	require.True(t, svc.End(ctx, done))
	require.True(t, svc.End(ctx, done))

	assert.Equal(t, completed0+1, finished(StatusCompleted))
	assert.Equal(t, ended0, finished(StatusEnded))

	fresh, _ := svc.Create(ctx, "+2", "x")
	require.True(t, svc.End(ctx, fresh))
	require.True(t, svc.End(ctx, fresh))
	assert.Equal(t, ended0+1, finished(StatusEnded))
}

func TestCreate_LogsToInjectedLoggerWithoutRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(NewMemoryRepo(10), telephony.NewDemoDialer(0), logger.NewWithWriter(&buf, false))

	id, err := svc.Create(context.Background(), "+1", "x")
	require.NoError(t, err)
	require.True(t, svc.End(context.Background(), id))

	out := buf.String()
	assert.Contains(t, out, `"msg":"call session created"`)
	assert.Contains(t, out, `"msg":"call ended"`)
	assert.Contains(t, out, id)
}

func TestInitiate_StartsProcessing(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))

	id, err := svc.Initiate(context.Background(), "+1", "x")
	require.NoError(t, err)
	rec := waitForStatus(t, svc, id, StatusCompleted)
	assert.Len(t, rec.Transcript, 3)
}

func TestInitiate_AfterShutdownMarksFailed(t *testing.T) {
	svc, repo := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()
	require.NoError(t, svc.Shutdown(ctx))

	id, err := svc.Initiate(ctx, "+1", "x")
	require.ErrorIs(t, err, ErrShuttingDown)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, repo.Len())

	rec, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, ErrShuttingDown.Error(), rec.Error)
	assert.NotNil(t, rec.CompletedAt)
}

func TestInitiate_RequiresPhoneNumber(t *testing.T) {
	svc, repo := newTestService(t, telephony.NewDemoDialer(0))
	_, err := svc.Initiate(context.Background(), "", "x")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, repo.Len())
}

func TestHistory_LimitAndOrder(t *testing.T) {
	svc, _ := newTestService(t, telephony.NewDemoDialer(0))
	ctx := context.Background()

	var ids []string
	for _, p := range []string{"+1", "+2", "+3"} {
		id, err := svc.Create(ctx, p, "x")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, svc.Process(ctx, ids[2]))

	got, err := svc.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[1], got[0].CallID)
	assert.Equal(t, ids[2], got[1].CallID)
	assert.Empty(t, got[0].Transcript)
	assert.Contains(t, got[1].Transcript, "User: I'd like to book an appointment.")

	_, err = svc.History(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestShutdown_StopsInFlightAndRejectsNewWork(t *testing.T) {
	d := newBlockingDialer()
	repo := NewMemoryRepo(10)
	svc := NewService(repo, d, logger.NewWithWriter(&bytes.Buffer{}, false))
	ctx := context.Background()

	id, _ := svc.Create(ctx, "+1", "x")
	require.NoError(t, svc.Start(ctx, id))
	<-d.entered

	sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(sctx))

	rec, _ := svc.Get(ctx, id)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, context.Canceled.Error(), rec.Error)

	id2, _ := svc.Create(ctx, "+2", "x")
	require.ErrorIs(t, svc.Start(ctx, id2), ErrShuttingDown)
}

func TestCallRecord_HistoryFlattensTranscript(t *testing.T) {
	r := CallRecord{
		CallID:     "call_1",
		Status:     StatusCompleted,
		Transcript: []Turn{{Speaker: "AI", Text: "a"}, {Speaker: "User", Text: "b"}},
	}
	assert.Equal(t, "AI: a\nUser: b", r.History().Transcript)
	assert.True(t, StatusEnded.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}
