package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"checkers/internal/config"
	"checkers/internal/engine"
	"checkers/internal/server/analysis"
	"checkers/internal/server/game"
)

// NewRouter mounts the API, the analysis websocket and the static UI.
func NewRouter(h *Handler, desktopDir, mobileDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.handlePing)
		r.Get("/initial", h.handleInitial)
		r.Get("/stats", h.handleStats)
		r.Get("/config", h.handleGetConfig)
		r.Put("/config", h.handlePutConfig)

		r.Post("/games", h.handleCreateGame)
		r.Get("/games/{id}", h.handleGetGame)
		r.Patch("/games/{id}", h.handlePatchGame)
		r.Post("/games/{id}/moves", h.handlePlayMove)
		r.Post("/games/{id}/analyze", h.handleAnalyzeGame)

		r.Post("/legal-moves", h.handleLegalMoves)
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/remap", h.handleRemap)
	})
	r.Get("/ws/analysis", h.serveAnalysisWS)

	RegisterStaticRoutes(r, desktopDir, mobileDir)
	return r
}

// Server wires the engine, the stores, the dispatcher and the hub behind
// the router. Run must be started for websocket clients to get results.
type Server struct {
	h          http.Handler
	Engine     *engine.Engine
	Config     *config.Store
	Hub        *Hub
	Dispatcher *analysis.Dispatcher
}

func NewServer(cfg config.Config) *Server {
	store := config.NewStore(cfg)
	eng := engine.NewEngine()
	eng.Mobility = cfg.Mobility
	hub := NewHub()
	d := analysis.NewDispatcher(eng, store, hub)
	h := NewHandler(store, eng, game.NewStore(), d, hub)
	return &Server{
		h:          NewRouter(h, cfg.WebDir, cfg.MobileDir()),
		Engine:     eng,
		Config:     store,
		Hub:        hub,
		Dispatcher: d,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.h.ServeHTTP(w, r)
}

// Run pumps results to websocket clients until done is closed.
func (s *Server) Run(done <-chan struct{}) {
	s.Hub.Run(done)
}

// Stop cancels the searches in flight and waits for background ones.
func (s *Server) Stop() {
	s.Dispatcher.CancelAll()
	s.Dispatcher.Wait()
}
