package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/competitive-sudoku-go/internal/api/apierr"
	"github.com/mcoot/competitive-sudoku-go/internal/api/handler"
	apimw "github.com/mcoot/competitive-sudoku-go/internal/api/middleware"
	"github.com/mcoot/competitive-sudoku-go/internal/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Service handler.GameService
	Players apimw.PlayerLookup
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.Service)
	gameHandler := handler.NewGameHandler(cfg.Service)
	watchHandler := handler.NewWatchHandler(cfg.Service, cfg.Logger)

	identity := apimw.Identity(cfg.Players)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, apierr.WritePanic))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logging(cfg.Logger))

	// Open routes
	api.HandleFunc("/health", gameHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/players", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/results", gameHandler.Results).Methods(http.MethodGet)

	// Routes acting as a player
	players := api.PathPrefix("/players").Subrouter()
	players.Use(identity)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/me", playerHandler.Quit).Methods(http.MethodDelete)

	games := api.PathPrefix("/games").Subrouter()
	games.Use(identity)
	games.HandleFunc("", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("/{id}/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/{id}/moves", gameHandler.Move).Methods(http.MethodPost)
	games.HandleFunc("/{id}/seat", gameHandler.Leave).Methods(http.MethodDelete)
	games.HandleFunc("/{id}/watch", watchHandler.Watch).Methods(http.MethodGet)

	return r
}
