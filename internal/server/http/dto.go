package httpserver

import (
	"checkers/internal/checkers"
	"checkers/internal/engine"
	"checkers/internal/server/analysis"
	"checkers/internal/server/game"
)

// PositionRequest is the shared body of the stateless endpoints. Rules
// default to DefaultRules when omitted.
type PositionRequest struct {
	Position *checkers.Position `json:"position"`
	Player   *checkers.Side     `json:"player"`
	Rules    *checkers.Rules    `json:"rules,omitempty"`
}

type LegalMovesResponse struct {
	LegalMoves []checkers.Move `json:"legalMoves"`
}

// AnalyzeRequest asks for a search. Depth 0 means the configured default.
// Requests sharing a session supersede each other.
type AnalyzeRequest struct {
	PositionRequest
	Session string `json:"session,omitempty"`
	Depth   int    `json:"depth,omitempty"`
}

type RankedMoveDTO struct {
	Move  checkers.Move `json:"move"`
	Score int           `json:"score"`
	Rank  int           `json:"rank"`
}

type AnalysisResponse struct {
	Ticket          string          `json:"ticket,omitempty"`
	Evaluation      int             `json:"evaluation"`
	BasicEvaluation int             `json:"basicEvaluation"`
	BestMove        *checkers.Move  `json:"bestMove"`
	LegalMoves      []checkers.Move `json:"legalMoves"`
	Explanation     string          `json:"explanation"`
	RankedMoves     []RankedMoveDTO `json:"rankedMoves"`
	Depth           int             `json:"depth"`
	AnalysisTime    int64           `json:"analysisTime"` // ms
	NodesEvaluated  int64           `json:"nodesEvaluated"`
}

type GameAnalyzeRequest struct {
	Depth int `json:"depth,omitempty"`
}

type GameAnalysisResponse struct {
	Game     game.Record      `json:"game"`
	Analysis AnalysisResponse `json:"analysis"`
}

// RemapRequest carries a position laid out for ColorComplex.
type RemapRequest struct {
	Position     *checkers.Position    `json:"position"`
	ColorComplex checkers.ColorComplex `json:"colorComplex"`
}

type RemapResponse struct {
	Position     *checkers.Position    `json:"position"`
	ColorComplex checkers.ColorComplex `json:"colorComplex"`
}

type InitialResponse struct {
	Position      *checkers.Position `json:"position"`
	CurrentPlayer checkers.Side      `json:"currentPlayer"`
	Rules         checkers.Rules     `json:"rules"`
	LegalMoves    []checkers.Move    `json:"legalMoves"`
	Encoded       string             `json:"encoded"`
}

type StatsResponse struct {
	Nodes    int64 `json:"nodes"`
	Searches int64 `json:"searches"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func analysisToDTO(ticket string, res engine.AnalysisResult) AnalysisResponse {
	ranked := make([]RankedMoveDTO, len(res.Ranked))
	for i, r := range res.Ranked {
		ranked[i] = RankedMoveDTO{Move: r.Move, Score: r.Score, Rank: r.Rank}
	}
	legal := res.LegalMoves
	if legal == nil {
		legal = []checkers.Move{}
	}
	return AnalysisResponse{
		Ticket:          ticket,
		Evaluation:      res.Evaluation,
		BasicEvaluation: res.BasicEvaluation,
		BestMove:        res.BestMove,
		LegalMoves:      legal,
		Explanation:     res.Explanation,
		RankedMoves:     ranked,
		Depth:           res.Depth,
		AnalysisTime:    res.TimeUsed.Milliseconds(),
		NodesEvaluated:  res.Nodes,
	}
}

func resultToDTO(res analysis.Result) AnalysisResponse {
	return analysisToDTO(res.Ticket, res.AnalysisResult)
}
