package game

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"checkers/internal/checkers"
)

var (
	ErrNotFound      = errors.New("game not found")
	ErrInvalidRecord = errors.New("invalid game data")
	ErrNotPlayMode   = errors.New("game is not in play mode")
	ErrIllegalMove   = errors.New("illegal move")
	ErrStaleAnalysis = errors.New("game changed during analysis")
)

type Mode string

const (
	ModeSetup Mode = "setup"
	ModePlay  Mode = "play"
)

func (m Mode) Valid() bool { return m == ModeSetup || m == ModePlay }

type Record struct {
	ID            int64              `json:"id"`
	Position      *checkers.Position `json:"position"`
	CurrentPlayer checkers.Side      `json:"currentPlayer"`
	GameMode      Mode               `json:"gameMode"`
	Rules         checkers.Rules     `json:"rules"`
	Evaluation    *int               `json:"evaluation"`
	BestMove      *string            `json:"bestMove"`
	MoveHistory   []string           `json:"moveHistory"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// RecordInput is the body of a create request. Position, CurrentPlayer and
// GameMode are required; Rules default to DefaultRules.
type RecordInput struct {
	Position      *checkers.Position `json:"position"`
	CurrentPlayer *checkers.Side     `json:"currentPlayer"`
	GameMode      Mode               `json:"gameMode"`
	Rules         *checkers.Rules    `json:"rules,omitempty"`
	Evaluation    *int               `json:"evaluation,omitempty"`
	BestMove      *string            `json:"bestMove,omitempty"`
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Position      *checkers.Position `json:"position,omitempty"`
	CurrentPlayer *checkers.Side     `json:"currentPlayer,omitempty"`
	GameMode      *Mode              `json:"gameMode,omitempty"`
	Rules         *checkers.Rules    `json:"rules,omitempty"`
	Evaluation    *int               `json:"evaluation,omitempty"`
	BestMove      *string            `json:"bestMove,omitempty"`
}

func (p Patch) apply(r *Record) {
	if p.Position != nil {
		r.Position = p.Position.Clone()
	}
	if p.CurrentPlayer != nil {
		r.CurrentPlayer = *p.CurrentPlayer
	}
	if p.GameMode != nil {
		r.GameMode = *p.GameMode
	}
	if p.Rules != nil {
		r.Rules = *p.Rules
	}
	if p.Evaluation != nil {
		v := *p.Evaluation
		r.Evaluation = &v
	}
	if p.BestMove != nil {
		v := *p.BestMove
		r.BestMove = &v
	}
}

// Validate checks the enums and that every piece stands on a dark square of
// the record's complex. Every problem is reported.
func (r *Record) Validate() error {
	var errs *multierror.Error
	if r.Position == nil {
		errs = multierror.Append(errs, errors.Wrap(ErrInvalidRecord, "position is required"))
	} else if err := r.Position.Validate(r.Rules.Complex); err != nil {
		errs = multierror.Append(errs, err)
	}
	if r.CurrentPlayer != checkers.Red && r.CurrentPlayer != checkers.Black {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidRecord, "currentPlayer %s", r.CurrentPlayer))
	}
	if !r.GameMode.Valid() {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidRecord, "gameMode %q", r.GameMode))
	}
	return errs.ErrorOrNil()
}

func (r *Record) clone() Record {
	out := *r
	if r.Position != nil {
		out.Position = r.Position.Clone()
	}
	if r.Evaluation != nil {
		v := *r.Evaluation
		out.Evaluation = &v
	}
	if r.BestMove != nil {
		v := *r.BestMove
		out.BestMove = &v
	}
	out.MoveHistory = append([]string{}, r.MoveHistory...)
	return out
}

// BestMoveText is the stored form of a suggested move, e.g. "c3 → d4".
func BestMoveText(m checkers.Move) string {
	return m.From.String() + " → " + m.To.String()
}
