package engine

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"checkers/internal/checkers"
)

const (
	// WinScore is what a side with no legal moves is worth to its opponent.
	// No heuristic total comes near it.
	WinScore = 10000

	scoreInf = 1_000_000_000

	// how often alphaBeta polls the context
	cancelCheckMask = 1023
)

var ErrInvalidDepth = errors.New("search depth must be at least 1")

type SearchConfig struct {
	Depth int
	Rules checkers.Rules
}

type MoveEvaluation struct {
	Move  checkers.Move
	Score int
	Rank  int
}

type AnalysisResult struct {
	Evaluation      int // advanced static score of the root, Red positive
	BasicEvaluation int // material count, man 1 king 2
	BestMove        *checkers.Move
	LegalMoves      []checkers.Move
	Explanation     string
	Ranked          []MoveEvaluation // best first for the side to move
	Depth           int
	Nodes           int64
	TimeUsed        time.Duration
}

type searcher struct {
	ctx      context.Context
	rules    checkers.Rules
	mobility bool
	nodes    int64
}

func (s *searcher) eval(pos *checkers.Position) int {
	return EvaluateAdvanced(pos, s.rules.Complex, s.mobility)
}

// Search runs a fixed-depth alpha-beta from pos with side to move. The
// position is validated once here; recursion trusts it.
//
// No legal moves is not an error: the result has a nil BestMove, an empty
// move list and the "No legal moves available." explanation.
func (e *Engine) Search(ctx context.Context, pos *checkers.Position, side checkers.Side, cfg SearchConfig) (AnalysisResult, error) {
	if cfg.Depth < 1 {
		return AnalysisResult{}, errors.Wrapf(ErrInvalidDepth, "got %d", cfg.Depth)
	}
	if side != checkers.Red && side != checkers.Black {
		return AnalysisResult{}, errors.Wrapf(checkers.ErrInvalidSide, "side %d", side)
	}
	if pos == nil {
		return AnalysisResult{}, errors.Wrap(checkers.ErrInvalidPosition, "nil position")
	}
	if err := pos.Validate(cfg.Rules.Complex); err != nil {
		return AnalysisResult{}, errors.WithMessage(err, "search")
	}

	start := time.Now()
	s := &searcher{ctx: ctx, rules: cfg.Rules, mobility: e.Mobility}
	res := AnalysisResult{
		Evaluation:      s.eval(pos),
		BasicEvaluation: EvaluateBasic(pos),
		Depth:           cfg.Depth,
	}

	moves := pos.GenerateLegalMoves(side, cfg.Rules)
	if len(moves) == 0 {
		res.LegalMoves = []checkers.Move{}
		res.Explanation = Explain(ExplainInput{})
		res.TimeUsed = time.Since(start)
		e.record(s.nodes)
		return res, nil
	}
	res.LegalMoves = moves

	scores, err := s.searchRoot(pos, side, moves, cfg.Depth)
	if err != nil {
		return AnalysisResult{}, err
	}

	// first strictly better score wins; ties keep the earlier move
	best := 0
	for i := 1; i < len(moves); i++ {
		if better(side, scores[i], scores[best]) {
			best = i
		}
	}
	bestMove := moves[best]
	res.BestMove = &bestMove
	res.Ranked = rankMoves(side, moves, scores)
	res.Explanation = Explain(ExplainInput{
		Move:        &bestMove,
		CurrentEval: res.Evaluation,
		ResultScore: scores[best],
		Position:    pos,
		Side:        side,
		Rules:       cfg.Rules,
	})
	res.Nodes = s.nodes
	res.TimeUsed = time.Since(start)
	e.record(s.nodes)
	return res, nil
}

// searchRoot scores every root move with a full window, in generator order,
// so each score is exact and usable for ranking.
func (s *searcher) searchRoot(pos *checkers.Position, side checkers.Side, moves []checkers.Move, depth int) ([]int, error) {
	scores := make([]int, len(moves))
	for i, mv := range moves {
		if err := s.ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		child, ok := pos.ApplyMove(mv)
		if !ok {
			return nil, errors.Errorf("generated move %s does not apply", mv.Notation())
		}
		score, err := s.alphaBeta(child, side.Opponent(), depth-1, -scoreInf, scoreInf)
		if err != nil {
			return nil, err
		}
		scores[i] = score
	}
	return scores, nil
}

// alphaBeta: Red maximises, Black minimises. A side with no moves has lost,
// and that is checked before the depth cut-off.
func (s *searcher) alphaBeta(pos *checkers.Position, side checkers.Side, depth int, alpha, beta int) (int, error) {
	s.nodes++
	if s.nodes&cancelCheckMask == 0 {
		if err := s.ctx.Err(); err != nil {
			return 0, errors.WithStack(err)
		}
	}

	moves := pos.GenerateLegalMoves(side, s.rules)
	if len(moves) == 0 {
		return lossScore(side), nil
	}
	if depth <= 0 {
		return s.eval(pos), nil
	}

	orderMoves(moves)
	next := side.Opponent()

	if side == checkers.Red {
		bestScore := -scoreInf
		for i := range moves {
			child, ok := pos.ApplyMove(moves[i])
			if !ok {
				continue
			}
			score, err := s.alphaBeta(child, next, depth-1, alpha, beta)
			if err != nil {
				return 0, err
			}
			if score > bestScore {
				bestScore = score
			}
			if score > alpha {
				alpha = score
			}
			if beta <= alpha {
				break
			}
		}
		return bestScore, nil
	}

	bestScore := scoreInf
	for i := range moves {
		child, ok := pos.ApplyMove(moves[i])
		if !ok {
			continue
		}
		score, err := s.alphaBeta(child, next, depth-1, alpha, beta)
		if err != nil {
			return 0, err
		}
		if score < bestScore {
			bestScore = score
		}
		if score < beta {
			beta = score
		}
		if beta <= alpha {
			break
		}
	}
	return bestScore, nil
}

func lossScore(side checkers.Side) int {
	if side == checkers.Red {
		return -WinScore
	}
	return WinScore
}

func better(side checkers.Side, a, b int) bool {
	if side == checkers.Red {
		return a > b
	}
	return a < b
}

// orderMoves puts longer jump chains first, then promotions. Stable, so the
// generator order breaks ties.
func orderMoves(moves []checkers.Move) {
	sort.SliceStable(moves, func(i, j int) bool {
		ci, cj := len(moves[i].Captures), len(moves[j].Captures)
		if ci != cj {
			return ci > cj
		}
		return moves[i].Promotion && !moves[j].Promotion
	})
}

func rankMoves(side checkers.Side, moves []checkers.Move, scores []int) []MoveEvaluation {
	out := make([]MoveEvaluation, len(moves))
	for i := range moves {
		out[i] = MoveEvaluation{Move: moves[i], Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return better(side, out[i].Score, out[j].Score)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
