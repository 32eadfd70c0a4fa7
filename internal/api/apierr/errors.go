package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/competitive-sudoku-go/internal/middleware"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidNickname = "INVALID_NICKNAME"
	CodeInvalidCapacity = "INVALID_CAPACITY"
	CodeOutOfRange      = "OUT_OF_RANGE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodePlayerNotFound  = "PLAYER_NOT_FOUND"
	CodeGameNotFound    = "GAME_NOT_FOUND"
	CodeResultNotFound  = "RESULT_NOT_FOUND"
	CodeGameFull        = "GAME_FULL"
	CodeNotSeated       = "NOT_SEATED"
	CodeCellLocked      = "CELL_LOCKED"
	CodeGameComplete    = "GAME_COMPLETE"
	CodeNicknameTaken   = "NICKNAME_TAKEN"
	CodeInternalError   = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer. The body
// carries the request id when the RequestID middleware has set one.
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	body := he.apiError
	body.RequestID = w.Header().Get(middleware.RequestIDHeader)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: body})
}

// WritePanic answers a request whose handler panicked
func WritePanic(w http.ResponseWriter, _ *http.Request, _ any) {
	WriteError(w, NewInternalError())
}

// StatusOf returns the HTTP status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Validation
	case errors.Is(err, model.ErrInvalidNickname):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidNickname, Message: model.ErrInvalidNickname.Error()}}
	case errors.Is(err, model.ErrInvalidCapacity):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidCapacity, Message: model.ErrInvalidCapacity.Error()}}
	case errors.Is(err, model.ErrOutOfRange):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeOutOfRange, Message: "Row, column and value must be within the board"}}
	case errors.Is(err, model.ErrMalformedRequest):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: "Malformed request"}}

	// Lookup
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodePlayerNotFound, Message: "Player not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeGameNotFound, Message: "Game not found"}}
	case errors.Is(err, model.ErrResultNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeResultNotFound, Message: "Result not found"}}

	// Capacity and rejected actions
	case errors.Is(err, model.ErrGameFull):
		return &httpError{http.StatusConflict, APIError{Code: CodeGameFull, Message: "Game is full"}}
	case errors.Is(err, model.ErrNotSeated):
		return &httpError{http.StatusForbidden, APIError{Code: CodeNotSeated, Message: "Not seated in this game"}}
	case errors.Is(err, model.ErrCellLocked):
		return &httpError{http.StatusConflict, APIError{Code: CodeCellLocked, Message: "Cell is part of the puzzle"}}
	case errors.Is(err, model.ErrGameComplete):
		return &httpError{http.StatusConflict, APIError{Code: CodeGameComplete, Message: "Game is already complete"}}
	case errors.Is(err, model.ErrNicknameTaken):
		return &httpError{http.StatusConflict, APIError{Code: CodeNicknameTaken, Message: "Nickname is already in use"}}
	case errors.Is(err, model.ErrNotRegistered):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
