package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/competitive-sudoku-go/internal/api/middleware"
	"github.com/mcoot/competitive-sudoku-go/internal/api/request"
	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/dispatch"
)

// Results listing bounds
const (
	DefaultResultsLimit = 10
	MaxResultsLimit     = 100
)

// GameService is the dispatcher surface the game endpoints use
type GameService interface {
	dispatch.Service
	Watch(ctx context.Context, playerID model.PlayerID, gameID model.GameID) (<-chan model.GameSnapshot, error)
	Results(ctx context.Context, limit int) ([]*model.GameResult, error)
	Stats() dispatch.Stats
}

// GameHandler handles game-related endpoints
type GameHandler struct {
	service GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(service GameService) *GameHandler {
	return &GameHandler{service: service}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.service.ListGames(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameSummariesFromModel(games))
}

// Create handles POST /api/v1/games. The caller takes the first seat.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	snap, err := h.service.CreateGame(r.Context(), player.ID, req.MaxPlayers)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.Snapshot(w, http.StatusCreated, snap)
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.FetchState(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.Snapshot(w, http.StatusOK, snap)
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	snap, err := h.service.JoinGame(r.Context(), player.ID, gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.Snapshot(w, http.StatusOK, snap)
}

// Move handles POST /api/v1/games/{id}/moves
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.X == nil || req.Y == nil || req.Value == nil {
		WriteError(w, NewInvalidRequestError("x, y and value are required"))
		return
	}

	snap, err := h.service.MakeMove(r.Context(), player.ID, gameID(r), *req.X, *req.Y, *req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.Snapshot(w, http.StatusOK, snap)
}

// Leave handles DELETE /api/v1/games/{id}/seat
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	if err := h.service.QuitGame(r.Context(), player.ID, gameID(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Results handles GET /api/v1/results?limit=n
func (h *GameHandler) Results(w http.ResponseWriter, r *http.Request) {
	limit := DefaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = min(n, MaxResultsLimit)
	}

	results, err := h.service.Results(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.GameResult, len(results))
	for i, res := range results {
		out[i] = response.GameResultFromModel(res)
	}
	response.JSON(w, http.StatusOK, out)
}

// Health handles GET /api/v1/health
func (h *GameHandler) Health(w http.ResponseWriter, _ *http.Request) {
	stats := h.service.Stats()
	response.JSON(w, http.StatusOK, response.Health{
		Status:    "ok",
		Players:   stats.Players,
		Games:     stats.Games,
		OpenGames: stats.OpenGames,
	})
}

func gameID(r *http.Request) model.GameID {
	return model.GameID(strings.TrimSpace(mux.Vars(r)["id"]))
}
