package response

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// JSON writes data as an uncacheable JSON response. The body is encoded
// before the status is sent, and a value that fails to encode becomes a 500.
func JSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&buf).Encode(data); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Snapshot writes a game snapshot
func Snapshot(w http.ResponseWriter, status int, snap model.GameSnapshot) {
	JSON(w, status, GameSnapshotFromModel(snap))
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}
