package engine

import (
	"math"

	"checkers/internal/checkers"
)

// EvaluateBasic is plain material from Red's side: man 1, king 2.
func EvaluateBasic(pos *checkers.Position) int {
	score := 0
	for _, pc := range pos.Board.Squares {
		switch pc {
		case checkers.RedMan:
			score++
		case checkers.RedKing:
			score += 2
		case checkers.BlackMan:
			score--
		case checkers.BlackKing:
			score -= 2
		}
	}
	return score
}

const (
	manValue  = 100
	kingValue = 300

	advanceWeight   = 10
	centerBonus     = 20
	edgePenalty     = 10
	backRankBonus   = 15
	kingRatioWeight = 50
	mobilityWeight  = 5
)

// EvaluateAdvanced scores pos from Red's side (positive = Red better).
// With mobility the legal-move difference is added, generated under the
// default force rules on complex c.
func EvaluateAdvanced(pos *checkers.Position, c checkers.ColorComplex, mobility bool) int {
	score := float64(evaluateMaterialPositional(pos))
	score += evaluateKingRatio(pos)
	if mobility {
		score += float64(evaluateMobility(pos, c))
	}
	return int(math.Round(score))
}

func evaluateMaterialPositional(pos *checkers.Position) int {
	score := 0
	for sq, pc := range pos.Board.Squares {
		if pc == 0 {
			continue
		}
		side := pc.Side()
		val := pieceValue(pc) + piecePositionalBonus(pc, side, sq/checkers.Cols, sq%checkers.Cols)
		if side == checkers.Red {
			score += val
		} else {
			score -= val
		}
	}
	return score
}

func pieceValue(pc checkers.Piece) int {
	if pc.IsKing() {
		return kingValue
	}
	return manValue
}

// piecePositionalBonus is the bonus for the piece's own side; the caller
// applies the sign.
func piecePositionalBonus(pc checkers.Piece, side checkers.Side, row, col int) int {
	b := 0
	if !pc.IsKing() {
		b += rankFromSide(side, row) * advanceWeight
	}
	if row >= 2 && row <= 5 && col >= 2 && col <= 5 {
		b += centerBonus
	}
	if col == 0 || col == checkers.Cols-1 {
		b -= edgePenalty
	}
	if row == checkers.BackRow(side) {
		b += backRankBonus
	}
	return b
}

// distance travelled from the side's own back rank
func rankFromSide(side checkers.Side, row int) int {
	if side == checkers.Red {
		return row
	}
	return checkers.Rows - 1 - row
}

func evaluateKingRatio(pos *checkers.Position) float64 {
	c := pos.Count()
	score := 0.0
	if c.Red() > 0 {
		score += float64(c.RedKings) / float64(c.Red()) * kingRatioWeight
	}
	if c.Black() > 0 {
		score -= float64(c.BlackKings) / float64(c.Black()) * kingRatioWeight
	}
	return score
}

func evaluateMobility(pos *checkers.Position, c checkers.ColorComplex) int {
	rules := checkers.DefaultRules().WithComplex(c)
	red := len(pos.GenerateLegalMoves(checkers.Red, rules))
	black := len(pos.GenerateLegalMoves(checkers.Black, rules))
	return (red - black) * mobilityWeight
}
