package engine

import (
	"fmt"

	"checkers/internal/checkers"
)

const (
	NoMovesExplanation = "No legal moves available."

	tacticalThreshold   = 200
	positionalThreshold = 100

	// total pieces at or below which the game counts as an endgame
	endgamePieces = 8
)

type Phase int

const (
	Middlegame Phase = iota
	Endgame
)

func (p Phase) String() string {
	if p == Endgame {
		return "endgame"
	}
	return "middlegame"
}

func PhaseOf(pos *checkers.Position) Phase {
	if pos.Count().Total() <= endgamePieces {
		return Endgame
	}
	return Middlegame
}

type ExplainInput struct {
	Move        *checkers.Move
	CurrentEval int
	ResultScore int
	Position    *checkers.Position // before the move
	Side        checkers.Side
	Rules       checkers.Rules
}

// Explain picks the rationale for a chosen move. Rules are tried in order
// and the first match wins.
func Explain(in ExplainInput) string {
	m := in.Move
	if m == nil {
		return NoMovesExplanation
	}
	if n := len(m.Captures); n > 1 {
		return fmt.Sprintf("This move captures %d opponent pieces in a single multi-jump sequence, winning material decisively.", n)
	} else if n == 1 {
		return "This move captures an opponent piece, winning material and improving your position significantly."
	}
	if m.Promotion {
		return "This move promotes your piece to a king, giving it much greater mobility and power."
	}

	delta := in.ResultScore - in.CurrentEval
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta > tacticalThreshold:
		return "This move creates a significant tactical advantage that the opponent will struggle to answer."
	case delta > positionalThreshold:
		return "This move is a clear positional improvement, strengthening piece structure and central control."
	}

	if in.Position != nil {
		if in.Position.HasCapture(in.Side.Opponent(), in.Rules.Complex) {
			return "This is a defensive move that deals with the opponent's pending capture threat."
		}
		if PhaseOf(in.Position) == Endgame {
			return "In this endgame the move activates your remaining pieces and restricts the opponent's options."
		}
	}
	return "This move maintains good position control and improves piece coordination for future tactical opportunities."
}
