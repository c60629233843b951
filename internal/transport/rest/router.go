package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"hectoclash/internal/config"
	"hectoclash/internal/metrics"
	"hectoclash/internal/service"
	"hectoclash/internal/transport/rest/handler"
	"hectoclash/internal/transport/rest/middleware"
	"hectoclash/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	PuzzleService   *service.PuzzleService
	MatchService    *service.MatchService
	PresenceService *service.PresenceService
	StatsService    *service.StatsService
	WSHandler       *ws.Handler
	Metrics         *metrics.Recorder
	MetricsHandler  http.Handler
	CORS            config.CORSConfig
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	puzzleHandler := handler.NewPuzzleHandler(c.PuzzleService)
	sessionHandler := handler.NewSessionHandler(c.MatchService)
	playerHandler := handler.NewPlayerHandler(c.PresenceService, c.StatsService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(middleware.CORS(c.CORS))
	r.Use(middleware.Logging(c.Metrics))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	if c.MetricsHandler != nil {
		r.Handle("/metrics", c.MetricsHandler).Methods("GET")
	}

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/puzzles", puzzleHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/puzzles/verify", puzzleHandler.Verify).Methods("POST", "OPTIONS")
	v1.HandleFunc("/puzzles/solve", puzzleHandler.Solve).Methods("POST", "OPTIONS")
	v1.HandleFunc("/puzzles/{id}/solution", puzzleHandler.Solution).Methods("GET", "OPTIONS")
	v1.HandleFunc("/leaderboard", playerHandler.Leaderboard).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param or header)
	v1.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")

	// Authenticated routes
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/players/online", playerHandler.Online).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/me/stats", playerHandler.Stats).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/me/results", playerHandler.Results).Methods("GET", "OPTIONS")

	return r
}
