package game

import (
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"checkers/internal/checkers"
)

// Store keeps game records in memory. Records go in and out by value and
// positions are cloned at the boundary, so callers never share board state
// with the store.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	games  map[int64]*Record
}

func NewStore() *Store {
	return &Store{nextID: 1, games: make(map[int64]*Record)}
}

func (s *Store) Create(in RecordInput) (Record, error) {
	var errs *multierror.Error
	if in.CurrentPlayer == nil {
		errs = multierror.Append(errs, errors.Wrap(ErrInvalidRecord, "currentPlayer is required"))
	}
	rules := checkers.DefaultRules()
	if in.Rules != nil {
		rules = *in.Rules
	}
	rec := Record{
		GameMode:   in.GameMode,
		Rules:      rules,
		Evaluation: in.Evaluation,
		BestMove:   in.BestMove,
	}
	if in.Position != nil {
		rec.Position = in.Position.Clone()
	}
	if in.CurrentPlayer != nil {
		rec.CurrentPlayer = *in.CurrentPlayer
	}
	if err := rec.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec.ID = s.nextID
	rec.CreatedAt, rec.UpdatedAt = now, now
	s.nextID++
	stored := rec.clone()
	s.games[rec.ID] = &stored
	return rec.clone(), nil
}

func (s *Store) Get(id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return Record{}, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	return g.clone(), nil
}

// Update merges p into the record and validates the result before storing
// it. A failed update leaves the record untouched.
func (s *Store) Update(id int64, p Patch) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return Record{}, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	next := g.clone()
	p.apply(&next)
	if err := next.Validate(); err != nil {
		return Record{}, err
	}
	next.UpdatedAt = time.Now()
	s.games[id] = &next
	return next.clone(), nil
}

// PlayMove applies m for the side to move, if it is one of the legal moves
// under the record's rules, and passes the turn. The stored analysis is
// cleared since it belonged to the previous position.
func (s *Store) PlayMove(id int64, m checkers.Move) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return Record{}, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	if g.GameMode != ModePlay {
		return Record{}, errors.Wrapf(ErrNotPlayMode, "game %d is in %s mode", id, g.GameMode)
	}

	legal := g.Position.GenerateLegalMoves(g.CurrentPlayer, g.Rules)
	var found *checkers.Move
	for i := range legal {
		if !sameRequest(legal[i], m) {
			continue
		}
		if found != nil && !sameCaptured(*found, legal[i]) {
			return Record{}, errors.Wrapf(ErrIllegalMove, "%s is ambiguous, give captures", m.Notation())
		}
		if found == nil {
			found = &legal[i]
		}
	}
	if found == nil {
		return Record{}, errors.Wrapf(ErrIllegalMove, "%s for %s", m.Notation(), g.CurrentPlayer)
	}

	pos, ok := g.Position.ApplyMove(*found)
	if !ok {
		return Record{}, errors.Errorf("apply %s failed", found.Notation())
	}
	next := g.clone()
	next.Position = pos
	next.CurrentPlayer = g.CurrentPlayer.Opponent()
	next.Evaluation = nil
	next.BestMove = nil
	next.MoveHistory = append(next.MoveHistory, found.Notation())
	next.UpdatedAt = time.Now()
	s.games[id] = &next
	return next.clone(), nil
}

// StoreAnalysis records the evaluation and best move found for seen, a
// record read before the search started. It fails with ErrStaleAnalysis
// when the position, side to move or rules have changed since.
func (s *Store) StoreAnalysis(seen Record, eval int, best *checkers.Move) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[seen.ID]
	if !ok {
		return Record{}, errors.Wrapf(ErrNotFound, "id %d", seen.ID)
	}
	if seen.Position == nil || *g.Position != *seen.Position ||
		g.CurrentPlayer != seen.CurrentPlayer || g.Rules != seen.Rules {
		return Record{}, errors.Wrapf(ErrStaleAnalysis, "game %d", seen.ID)
	}

	next := g.clone()
	next.Evaluation = &eval
	next.BestMove = nil
	if best != nil {
		text := BestMoveText(*best)
		next.BestMove = &text
	}
	next.UpdatedAt = time.Now()
	s.games[seen.ID] = &next
	return next.clone(), nil
}

// sameRequest matches a requested move against a generated one. A request
// may leave out the capture list; PlayMove then insists that every chain
// between from and to takes the same pieces.
func sameRequest(legal, req checkers.Move) bool {
	if len(req.Captures) == 0 {
		return legal.From == req.From && legal.To == req.To
	}
	return legal.Same(req)
}

// sameCaptured reports whether two chains remove the same pieces, in any
// order. Such chains leave identical positions.
func sameCaptured(a, b checkers.Move) bool {
	if len(a.Captures) != len(b.Captures) {
		return false
	}
	taken := make(map[checkers.Square]bool, len(a.Captures))
	for _, sq := range a.Captures {
		taken[sq] = true
	}
	for _, sq := range b.Captures {
		if !taken[sq] {
			return false
		}
	}
	return true
}
