package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/competitive-sudoku-go/internal/api/middleware"
	"github.com/mcoot/competitive-sudoku-go/internal/api/request"
	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
	"github.com/mcoot/competitive-sudoku-go/internal/services/dispatch"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	service dispatch.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(service dispatch.Service) *PlayerHandler {
	return &PlayerHandler{service: service}
}

// Register handles POST /api/v1/players
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, err := h.service.Register(r.Context(), req.Nickname)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(*player))
}

// Quit handles DELETE /api/v1/players/me, leaving every game and
// unregistering
func (h *PlayerHandler) Quit(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	if err := h.service.QuitServer(r.Context(), player.ID); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
