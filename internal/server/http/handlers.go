package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"checkers/internal/checkers"
	"checkers/internal/config"
	"checkers/internal/engine"
	"checkers/internal/server/analysis"
	"checkers/internal/server/game"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errInvalidID   = errors.New("invalid game id")
	errMissing     = errors.New("missing field")
)

type Handler struct {
	cfg      *config.Store
	engine   *engine.Engine
	games    *game.Store
	analysis *analysis.Dispatcher
	hub      *Hub
}

func NewHandler(cfg *config.Store, eng *engine.Engine, games *game.Store, d *analysis.Dispatcher, hub *Hub) *Handler {
	return &Handler{cfg: cfg, engine: eng, games: games, analysis: d, hub: hub}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("[server] writeJSON error:", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[server] %+v", err)
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrSuperseded),
		errors.Is(err, game.ErrNotPlayMode),
		errors.Is(err, game.ErrStaleAnalysis):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, errInvalidBody),
		errors.Is(err, errInvalidID),
		errors.Is(err, errMissing),
		errors.Is(err, game.ErrInvalidRecord),
		errors.Is(err, game.ErrIllegalMove),
		errors.Is(err, engine.ErrInvalidDepth),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, checkers.ErrInvalidSquare),
		errors.Is(err, checkers.ErrInvalidPiece),
		errors.Is(err, checkers.ErrInvalidSide),
		errors.Is(err, checkers.ErrLightSquare),
		errors.Is(err, checkers.ErrInvalidPosition):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON keeps errors from the checkers codecs so they map to their own
// status; anything else is an invalid body.
func decodeJSON(r *http.Request, v any) error {
	return decodeBody(r, v, false)
}

// decodeOptionalJSON leaves v untouched when the body is empty, whether the
// client sent no length or a chunked stream with nothing in it.
func decodeOptionalJSON(r *http.Request, v any) error {
	return decodeBody(r, v, true)
}

func decodeBody(r *http.Request, v any, optional bool) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && err == io.EOF {
			return nil
		}
		if statusFor(err) == http.StatusBadRequest {
			return err
		}
		return errors.Wrap(errInvalidBody, err.Error())
	}
	return nil
}

func gameID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.Wrapf(errInvalidID, "%q", raw)
	}
	return id, nil
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleInitial(w http.ResponseWriter, r *http.Request) {
	pos := checkers.NewInitialPosition()
	rules := checkers.DefaultRules()
	writeJSON(w, http.StatusOK, InitialResponse{
		Position:      pos,
		CurrentPlayer: checkers.Red,
		Rules:         rules,
		LegalMoves:    pos.GenerateLegalMoves(checkers.Red, rules),
		Encoded:       pos.Encode(checkers.Red),
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	nodes, searches := h.engine.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{Nodes: nodes, Searches: searches})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Get())
}

// handlePutConfig decodes over the live config, so a partial body only
// changes the keys it names.
func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	next := h.cfg.Get()
	if err := decodeJSON(r, &next); err != nil {
		writeError(w, err)
		return
	}
	if err := h.cfg.Update(next); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cfg.Get())
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in game.RecordInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.games.Create(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.games.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handlePatchGame(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var p game.Patch
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.games.Update(id, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handlePlayMove(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var mv checkers.Move
	if err := decodeJSON(r, &mv); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.games.PlayMove(id, mv)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleAnalyzeGame searches the stored position and writes the evaluation
// and suggested move back to the record, unless a move or edit landed while
// the search ran (409).
func (h *Handler) handleAnalyzeGame(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body GameAnalyzeRequest
	if err := decodeOptionalJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.games.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	depth, err := h.depth(body.Depth)
	if err != nil {
		writeError(w, err)
		return
	}

	session := "game-" + strconv.FormatInt(id, 10)
	res, err := h.analysis.Analyze(r.Context(), session, analysis.Request{
		Position: rec.Position,
		Side:     rec.CurrentPlayer,
		Rules:    rec.Rules,
		Depth:    depth,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.games.StoreAnalysis(rec, res.Evaluation, res.BestMove)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GameAnalysisResponse{Game: updated, Analysis: resultToDTO(res)})
}

func (h *Handler) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	var body PositionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	pos, side, rules, err := body.resolve()
	if err != nil {
		writeError(w, err)
		return
	}
	moves := pos.GenerateLegalMoves(side, rules)
	if moves == nil {
		moves = []checkers.Move{}
	}
	writeJSON(w, http.StatusOK, LegalMovesResponse{LegalMoves: moves})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := h.analysisRequest(body)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.analysis.Analyze(r.Context(), body.Session, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(res))
}

func (h *Handler) handleRemap(w http.ResponseWriter, r *http.Request) {
	var body RemapRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Position == nil {
		writeError(w, errors.Wrap(errMissing, "position"))
		return
	}
	if err := body.Position.Validate(body.ColorComplex); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RemapResponse{
		Position:     body.Position.RemapColorComplex(body.ColorComplex),
		ColorComplex: body.ColorComplex.Opposite(),
	})
}

func (b PositionRequest) resolve() (*checkers.Position, checkers.Side, checkers.Rules, error) {
	rules := checkers.DefaultRules()
	if b.Rules != nil {
		rules = *b.Rules
	}
	if b.Position == nil {
		return nil, checkers.NoSide, rules, errors.Wrap(errMissing, "position")
	}
	if b.Player == nil {
		return nil, checkers.NoSide, rules, errors.Wrap(errMissing, "player")
	}
	if err := b.Position.Validate(rules.Complex); err != nil {
		return nil, checkers.NoSide, rules, err
	}
	return b.Position, *b.Player, rules, nil
}

func (h *Handler) analysisRequest(body AnalyzeRequest) (analysis.Request, error) {
	pos, side, rules, err := body.resolve()
	if err != nil {
		return analysis.Request{}, err
	}
	depth, err := h.depth(body.Depth)
	if err != nil {
		return analysis.Request{}, err
	}
	return analysis.Request{Position: pos, Side: side, Rules: rules, Depth: depth}, nil
}

// depth applies the configured default and ceiling.
func (h *Handler) depth(requested int) (int, error) {
	cfg := h.cfg.Get()
	if requested == 0 {
		return cfg.DefaultDepth, nil
	}
	if requested < 0 || requested > cfg.MaxDepth {
		return 0, errors.Wrapf(engine.ErrInvalidDepth, "depth %d outside 1..%d", requested, cfg.MaxDepth)
	}
	return requested, nil
}
