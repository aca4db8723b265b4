package analysis

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"checkers/internal/checkers"
	"checkers/internal/config"
	"checkers/internal/engine"
)

var ErrSuperseded = errors.New("analysis superseded by a newer request")

type Request struct {
	Position *checkers.Position
	Side     checkers.Side
	Rules    checkers.Rules
	Depth    int
}

type Result struct {
	Ticket  string
	Session string
	engine.AnalysisResult
}

// Publisher receives every result that was still current when it finished.
type Publisher interface {
	Publish(Result)
}

type ticket struct {
	id     string
	cancel context.CancelFunc
}

// Dispatcher runs searches with a bounded number in flight. Within one
// session only the newest request counts: starting a request cancels the
// one before it, and a result that is no longer current is dropped with
// ErrSuperseded instead of being returned or published.
type Dispatcher struct {
	engine *engine.Engine
	cfg    *config.Store
	sem    *semaphore.Weighted
	pub    Publisher

	mu      sync.Mutex
	current map[string]ticket
	wg      sync.WaitGroup
}

func NewDispatcher(eng *engine.Engine, cfg *config.Store, pub Publisher) *Dispatcher {
	workers := cfg.Get().AnalysisWorkers
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		engine:  eng,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(workers)),
		pub:     pub,
		current: make(map[string]ticket),
	}
}

// Analyze blocks until the search finishes. An empty session never
// supersedes anything.
func (d *Dispatcher) Analyze(ctx context.Context, session string, req Request) (Result, error) {
	return d.run(ctx, session, uuid.NewString(), req)
}

// Submit starts the search in the background and returns its ticket. The
// outcome only reaches the publisher.
func (d *Dispatcher) Submit(session string, req Request) string {
	id := uuid.NewString()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.run(context.Background(), session, id, req); err != nil && !errors.Is(err, ErrSuperseded) {
			log.Printf("[analysis] session %q ticket %s failed: %v", session, id, err)
		}
	}()
	return id
}

// Wait blocks until every submitted search has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// CancelAll cancels every search still in flight.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.current {
		t.cancel()
	}
}

func (d *Dispatcher) run(parent context.Context, session, id string, req Request) (Result, error) {
	cfg := d.cfg.Get()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	if t := cfg.AnalysisTimeout(); t > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, t)
		defer cancelTimeout()
	}

	if session != "" {
		d.claim(session, ticket{id: id, cancel: cancel})
		defer d.release(session, id)
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		if !d.isCurrent(session, id) {
			return Result{}, errors.Wrapf(ErrSuperseded, "ticket %s", id)
		}
		return Result{}, errors.WithStack(err)
	}
	res, err := d.engine.Search(ctx, req.Position, req.Side, engine.SearchConfig{Depth: req.Depth, Rules: req.Rules})
	d.sem.Release(1)

	if !d.isCurrent(session, id) {
		log.Printf("[analysis] session %q ticket %s discarded", session, id)
		return Result{}, errors.Wrapf(ErrSuperseded, "ticket %s", id)
	}
	if err != nil {
		return Result{}, err
	}

	if cfg.LogSearchStats {
		best := "none"
		if res.BestMove != nil {
			best = res.BestMove.Notation()
		}
		log.Printf("[analysis] session %q depth=%d nodes=%d elapsed=%s best=%s eval=%d",
			session, res.Depth, res.Nodes, res.TimeUsed, best, res.Evaluation)
	}

	out := Result{Ticket: id, Session: session, AnalysisResult: res}
	if d.pub != nil {
		d.pub.Publish(out)
	}
	return out, nil
}

func (d *Dispatcher) claim(session string, t ticket) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.current[session]; ok {
		prev.cancel()
		log.Printf("[analysis] session %q ticket %s superseded by %s", session, prev.id, t.id)
	}
	d.current[session] = t
}

func (d *Dispatcher) release(session, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.current[session]; ok && t.id == id {
		delete(d.current, session)
	}
}

func (d *Dispatcher) isCurrent(session, id string) bool {
	if session == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.current[session]
	return ok && t.id == id
}

