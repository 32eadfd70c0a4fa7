package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mcoot/competitive-sudoku-go/internal/api/middleware"
	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
)

const watchWriteTimeout = 5 * time.Second

// WatchHandler streams game snapshots over a websocket
type WatchHandler struct {
	service GameService
	logger  *slog.Logger
}

// NewWatchHandler creates a new watch handler
func NewWatchHandler(service GameService, logger *slog.Logger) *WatchHandler {
	return &WatchHandler{service: service, logger: logger}
}

// Watch handles GET /api/v1/games/{id}/watch. Each message is a game
// snapshot; the socket closes normally once the game completes or is
// removed.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := gameID(r)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before upgrading so lookup failures get a normal HTTP error.
	updates, err := h.service.Watch(ctx, player.ID, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// Clients send nothing; CloseRead notices when they go away.
	ctx = conn.CloseRead(ctx)

	logger := h.logger.With(slog.String("game_id", string(id)), slog.String("player_id", string(player.ID)))
	logger.Debug("watch started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("watch ended by client")
			return
		case snap, ok := <-updates:
			if !ok {
				logger.Debug("watch finished")
				_ = conn.Close(websocket.StatusNormalClosure, "game over")
				return
			}
			writeCtx, done := context.WithTimeout(ctx, watchWriteTimeout)
			err := wsjson.Write(writeCtx, conn, response.GameSnapshotFromModel(snap))
			done()
			if err != nil {
				logger.Debug("watch write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}
