package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkers/internal/checkers"
	"checkers/internal/config"
	"checkers/internal/engine"
	"checkers/internal/server/analysis"
	"checkers/internal/server/game"
)

type testServer struct {
	*httptest.Server
	app *Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	cfg := config.Default()
	cfg.WebDir = dir
	app := NewServer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go app.Run(ctx.Done())

	srv := httptest.NewServer(app)
	t.Cleanup(func() {
		srv.Close()
		app.Stop()
		cancel()
	})
	return &testServer{Server: srv, app: app}
}

// do sends body as JSON (a string is sent verbatim) and decodes the reply
// into out when it is non-nil.
func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

func notations(moves []checkers.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.Notation()
	}
	return out
}

func TestPingAndInitial(t *testing.T) {
	s := newTestServer(t)

	var ping map[string]bool
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/ping", nil, &ping))
	assert.True(t, ping["ok"])

	var initial InitialResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/initial", nil, &initial))
	assert.Equal(t, checkers.Red, initial.CurrentPlayer)
	assert.Equal(t, checkers.DefaultRules(), initial.Rules)
	assert.Equal(t, 24, initial.Position.Count().Total())
	want := []string{"a3-b4", "c3-b4", "c3-d4", "e3-d4", "e3-f4", "g3-f4", "g3-h4"}
	if diff := cmp.Diff(want, notations(initial.LegalMoves)); diff != "" {
		t.Fatalf("initial moves (-want +got):\n%s", diff)
	}
	assert.Equal(t, "1b1b1b1b/b1b1b1b1/1b1b1b1b/8/8/r1r1r1r1/1r1r1r1r/r1r1r1r1 r", initial.Encoded)
}

func TestGameLifecycle(t *testing.T) {
	s := newTestServer(t)
	start := checkers.NewInitialPosition()

	var rec game.Record
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games", map[string]any{
		"position":      start,
		"currentPlayer": "red",
		"gameMode":      "setup",
	}, &rec))
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, game.ModeSetup, rec.GameMode)

	var got game.Record
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/games/1", nil, &got))
	assert.Equal(t, start.Board, got.Position.Board)

	var msg errorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/games/abc", nil, &msg))
	assert.Contains(t, msg.Message, "invalid game id")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/games/7", nil, &msg))
	assert.Contains(t, msg.Message, "game not found")

	mv := `{"from":"c3","to":"d4"}`
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/games/1/moves", mv, &msg))

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, "/api/games/1", `{"gameMode":"watch"}`, &msg))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/api/games/1", `{"gameMode":"play"}`, &got))
	assert.Equal(t, game.ModePlay, got.GameMode)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games/1/moves", mv, &got))
	assert.Equal(t, checkers.Black, got.CurrentPlayer)
	assert.Equal(t, []string{"c3-d4"}, got.MoveHistory)
	assert.Equal(t, checkers.RedMan, got.Position.At(checkers.MustSquare("d4")))

	// same move again is not legal for black
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/games/1/moves", mv, &msg))
	assert.Contains(t, msg.Message, "illegal move")
}

func TestCreateGameRejectsInvalidData(t *testing.T) {
	s := newTestServer(t)
	var msg errorResponse

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/games", `{"position":`, &msg))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/games",
		`{"position":{"a2":"red"},"currentPlayer":"red","gameMode":"setup"}`, &msg))
	assert.Contains(t, msg.Message, "light square")
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/games",
		`{"position":{"z9":"red"},"currentPlayer":"red","gameMode":"setup"}`, &msg))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/games",
		`{"position":{},"currentPlayer":"green","gameMode":"setup"}`, &msg))
}

func TestAnalyzeGameStoresSuggestion(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games", map[string]any{
		"position":      checkers.NewInitialPosition(),
		"currentPlayer": "red",
		"gameMode":      "play",
	}, nil))

	var out GameAnalysisResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games/1/analyze", `{"depth":2}`, &out))
	require.NotNil(t, out.Analysis.BestMove)
	require.NotNil(t, out.Game.Evaluation)
	require.NotNil(t, out.Game.BestMove)
	assert.Equal(t, out.Analysis.Evaluation, *out.Game.Evaluation)
	assert.Equal(t, game.BestMoveText(*out.Analysis.BestMove), *out.Game.BestMove)
	assert.Contains(t, *out.Game.BestMove, " → ")
	assert.Equal(t, 2, out.Analysis.Depth)

	var stored game.Record
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/games/1", nil, &stored))
	assert.Equal(t, *out.Game.BestMove, *stored.BestMove)

	// no body falls back to the default depth
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games/1/analyze", nil, &out))
	assert.Equal(t, config.Default().DefaultDepth, out.Analysis.Depth)
}

func TestAnalyzeGameAcceptsEmptyChunkedBody(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games", map[string]any{
		"position":      checkers.NewInitialPosition(),
		"currentPlayer": "red",
		"gameMode":      "play",
	}, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/games/1/analyze", io.NopCloser(strings.NewReader("")))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	s.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out GameAnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, config.Default().DefaultDepth, out.Analysis.Depth)
}

func TestAnalyzeGameDropsResultAfterMove(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games", map[string]any{
		"position":      checkers.NewInitialPosition(),
		"currentPlayer": "red",
		"gameMode":      "play",
	}, nil))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/config", `{"max_depth":11}`, nil))

	status := make(chan int, 1)
	go func() {
		resp, err := s.Client().Post(s.URL+"/api/games/1/analyze", "application/json", strings.NewReader(`{"depth":10}`))
		if err != nil {
			status <- -1
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	time.Sleep(50 * time.Millisecond)
	mv := map[string]string{"from": "c3", "to": "d4"}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/games/1/moves", mv, nil))

	// 409 when the move beat the search, 200 when the search finished first
	assert.Contains(t, []int{http.StatusOK, http.StatusConflict}, <-status)

	var got game.Record
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/games/1", nil, &got))
	assert.Equal(t, checkers.Black, got.CurrentPlayer)
	assert.Equal(t, []string{"c3-d4"}, got.MoveHistory)
	assert.Nil(t, got.Evaluation, "red's analysis must not land on black's turn")
	assert.Nil(t, got.BestMove)
}

func TestLegalMovesEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := `{"position":{"c3":"red","d4":"black","a1":"red"},"player":"red"}`

	var res LegalMovesResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/legal-moves", body, &res))
	if diff := cmp.Diff([]string{"c3-e5xd4"}, notations(res.LegalMoves)); diff != "" {
		t.Fatalf("forced capture (-want +got):\n%s", diff)
	}

	relaxed := `{"position":{"c3":"red","d4":"black","a1":"red"},"player":"red","rules":{"forceTake":false,"forceMultipleTakes":false,"colorComplex":false}}`
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/legal-moves", relaxed, &res))
	assert.Len(t, res.LegalMoves, 3)

	var msg errorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/legal-moves", `{"position":{"c3":"red"}}`, &msg))
	assert.Contains(t, msg.Message, "player")
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/legal-moves", `{"position":{"b3":"red"},"player":"red"}`, &msg))
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t)

	var res AnalysisResponse
	body := map[string]any{"position": checkers.NewInitialPosition(), "player": "red", "depth": 1}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/analyze", body, &res))
	assert.Len(t, res.LegalMoves, 7)
	assert.Len(t, res.RankedMoves, 7)
	assert.Equal(t, 0, res.BasicEvaluation)
	assert.Equal(t, int64(7), res.NodesEvaluated)
	require.NotNil(t, res.BestMove)
	assert.True(t, res.BestMove.Same(res.RankedMoves[0].Move))
	assert.NotEmpty(t, res.Ticket)

	var msg errorResponse
	body["depth"] = 99
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/analyze", body, &msg))

	// black to move with both kings boxed in
	stuck := `{"position":{"h8":"black-king","g7":"red","f6":"red","a1":"black-king","b2":"red","c3":"red"},"player":"black","depth":2}`
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/analyze", stuck, &res))
	assert.Nil(t, res.BestMove)
	assert.NotNil(t, res.LegalMoves)
	assert.Empty(t, res.LegalMoves)
	assert.Equal(t, engine.NoMovesExplanation, res.Explanation)
}

func TestRemapEndpoint(t *testing.T) {
	s := newTestServer(t)

	var res RemapResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/remap",
		`{"position":{"a1":"red","h2":"black","c1":"red-king"},"colorComplex":false}`, &res))
	assert.Equal(t, checkers.FlippedComplex, res.ColorComplex)
	assert.Equal(t, checkers.RedMan, res.Position.At(checkers.MustSquare("b1")))
	assert.Equal(t, checkers.BlackMan, res.Position.At(checkers.MustSquare("a2")))
	assert.Equal(t, checkers.RedKing, res.Position.At(checkers.MustSquare("d1")))
	assert.Equal(t, 3, res.Position.Count().Total())

	var msg errorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/remap", `{"colorComplex":false}`, &msg))
}

func TestConfigEndpoint(t *testing.T) {
	s := newTestServer(t)

	var cfg config.Config
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/config", nil, &cfg))
	assert.Equal(t, 4, cfg.DefaultDepth)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/config", `{"default_depth":2}`, &cfg))
	assert.Equal(t, 2, cfg.DefaultDepth)
	assert.Equal(t, 8, cfg.MaxDepth)

	var msg errorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/config", `{"analysis_workers":0}`, &msg))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/config", `{"mobility":false}`, &msg))
	assert.Contains(t, msg.Message, "mobility")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/config", nil, &cfg))
	assert.True(t, cfg.Mobility)

	// the engine still scores with the mobility term: 140 material and
	// position plus two moves at weight 5
	var lone AnalysisResponse
	loneBody := map[string]any{"position": map[string]string{"c3": "red"}, "player": "red", "depth": 1}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/analyze", loneBody, &lone))
	assert.Equal(t, 150, lone.Evaluation)

	var res AnalysisResponse
	body := map[string]any{"position": checkers.NewInitialPosition(), "player": "red"}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/analyze", body, &res))
	assert.Equal(t, 2, res.Depth)

	var stats StatsResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/stats", nil, &stats))
	assert.Equal(t, int64(1), stats.Searches)
}

func TestStaticRoutes(t *testing.T) {
	s := newTestServer(t)
	client := s.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	get := func(path, ua string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
		require.NoError(t, err)
		if ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := get("/", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/web_mobile/", resp.Header.Get("Location"))

	resp = get("/?view=desktop", "Mozilla/5.0 (iPhone)")
	assert.Equal(t, "/web/", resp.Header.Get("Location"))
	require.NotEmpty(t, resp.Cookies())
	assert.Equal(t, "web", resp.Cookies()[0].Value)

	resp = get("/web/app.js", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalysisWebsocket(t *testing.T) {
	s := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/analysis?session=board-1"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.app.Hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	read := func() wsMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// a result for another session must not arrive here
	body := map[string]any{"position": checkers.NewInitialPosition(), "player": "red", "depth": 1}
	body["session"] = "other"
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/analyze", body, nil))

	body["session"] = "board-1"
	var res AnalysisResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/analyze", body, &res))

	msg := read()
	require.Equal(t, "analysis", msg.Type)
	var pushed AnalysisResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &pushed))
	assert.Equal(t, res.Ticket, pushed.Ticket)
	assert.Len(t, pushed.LegalMoves, 7)

	// queue a search over the socket itself
	req := map[string]any{"position": checkers.NewInitialPosition(), "player": "black", "depth": 1}
	require.NoError(t, conn.WriteJSON(wsMessage{Type: "analyze", Payload: mustMarshal(req)}))

	// the result can overtake the acknowledgement
	byType := map[string]wsMessage{}
	for i := 0; i < 2; i++ {
		msg = read()
		byType[msg.Type] = msg
	}
	require.Contains(t, byType, "accepted")
	require.Contains(t, byType, "analysis")
	var acc acceptedPayload
	require.NoError(t, json.Unmarshal(byType["accepted"].Payload, &acc))
	require.NoError(t, json.Unmarshal(byType["analysis"].Payload, &pushed))
	assert.Equal(t, acc.Ticket, pushed.Ticket)
	assert.Len(t, pushed.LegalMoves, 7)
}

func TestAnalysisWebsocketNeedsSession(t *testing.T) {
	s := newTestServer(t)
	var msg errorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/ws/analysis", nil, &msg))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.Wrap(game.ErrNotFound, "id 3"), http.StatusNotFound},
		{errors.Wrap(analysis.ErrSuperseded, "ticket"), http.StatusConflict},
		{errors.Wrap(game.ErrStaleAnalysis, "game 1"), http.StatusConflict},
		{errors.WithStack(context.Canceled), http.StatusServiceUnavailable},
		{errors.Wrap(checkers.ErrLightSquare, "a2"), http.StatusBadRequest},
		{errors.Wrap(engine.ErrInvalidDepth, "0"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
