package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkers/internal/checkers"
	"checkers/internal/config"
	"checkers/internal/engine"
)

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) Publish(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

func (r *recorder) tickets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.results))
	for i, res := range r.results {
		out[i] = res.Ticket
	}
	return out
}

func (d *Dispatcher) pending(session string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current[session].id
}

func newDispatcher(t *testing.T, mutate func(*config.Config)) (*Dispatcher, *recorder) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	rec := &recorder{}
	d := NewDispatcher(engine.NewEngine(), config.NewStore(cfg), rec)
	t.Cleanup(func() {
		d.CancelAll()
		d.Wait()
	})
	return d, rec
}

func startReq(depth int) Request {
	return Request{
		Position: checkers.NewInitialPosition(),
		Side:     checkers.Red,
		Rules:    checkers.DefaultRules(),
		Depth:    depth,
	}
}

// deep enough that it only ends by cancellation
const slowDepth = 30

func TestAnalyzePublishesResult(t *testing.T) {
	d, rec := newDispatcher(t, nil)

	res, err := d.Analyze(context.Background(), "s1", startReq(2))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Ticket)
	assert.Equal(t, "s1", res.Session)
	require.NotNil(t, res.BestMove)
	assert.Len(t, res.LegalMoves, 7)

	assert.Equal(t, []string{res.Ticket}, rec.tickets())
	assert.Empty(t, d.pending("s1"))
}

func TestNewerRequestSupersedesOlder(t *testing.T) {
	d, rec := newDispatcher(t, nil)

	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := d.Analyze(context.Background(), "board", startReq(slowDepth))
		first <- outcome{res, err}
	}()
	require.Eventually(t, func() bool { return d.pending("board") != "" }, 2*time.Second, 5*time.Millisecond)

	second, err := d.Analyze(context.Background(), "board", startReq(1))
	require.NoError(t, err)

	select {
	case o := <-first:
		assert.True(t, errors.Is(o.err, ErrSuperseded), "%v", o.err)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded search did not stop")
	}
	assert.Equal(t, []string{second.Ticket}, rec.tickets())
}

func TestSessionsDoNotSupersedeEachOther(t *testing.T) {
	d, _ := newDispatcher(t, nil)

	a, err := d.Analyze(context.Background(), "a", startReq(2))
	require.NoError(t, err)
	b, err := d.Analyze(context.Background(), "b", startReq(2))
	require.NoError(t, err)
	assert.NotEqual(t, a.Ticket, b.Ticket)
	assert.Equal(t, a.Ranked, b.Ranked)
}

func TestWorkersBoundConcurrentSearches(t *testing.T) {
	d, _ := newDispatcher(t, func(c *config.Config) { c.AnalysisWorkers = 1 })

	d.Submit("hog", startReq(slowDepth))
	require.Eventually(t, func() bool { return d.pending("hog") != "" }, 2*time.Second, 5*time.Millisecond)
	// give the hog time to take the only slot
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := d.Analyze(ctx, "other", startReq(1))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)
}

func TestAnalysisTimeout(t *testing.T) {
	d, rec := newDispatcher(t, func(c *config.Config) { c.AnalysisTimeoutMs = 30 })

	_, err := d.Analyze(context.Background(), "slow", startReq(slowDepth))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)
	assert.Empty(t, rec.tickets())
}

func TestSubmitPublishesInBackground(t *testing.T) {
	d, rec := newDispatcher(t, nil)

	ticket := d.Submit("bg", startReq(2))
	d.Wait()
	assert.Equal(t, []string{ticket}, rec.tickets())
}

func TestInvalidRequestIsNotPublished(t *testing.T) {
	d, rec := newDispatcher(t, nil)

	_, err := d.Analyze(context.Background(), "", startReq(0))
	assert.True(t, errors.Is(err, engine.ErrInvalidDepth), "%v", err)
	assert.Empty(t, rec.tickets())
}
