package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/competitive-sudoku-go/internal/api/apierr"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// PlayerHeader carries the caller's player id
const PlayerHeader = "X-Player-ID"

type contextKey string

const playerContextKey contextKey = "player"

// PlayerLookup resolves a player id to a registered player
type PlayerLookup interface {
	Get(id model.PlayerID) (model.Player, error)
}

// Identity resolves the X-Player-ID header against the registry. Requests
// without a registered id are rejected with 401.
func Identity(players PlayerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(PlayerHeader))
			if id == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			player, err := players.Get(model.PlayerID(id))
			if err != nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, &player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPlayer returns the identified player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// MustGetPlayer returns the identified player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - identity middleware not applied?")
	}
	return player
}
