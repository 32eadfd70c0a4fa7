// Package status defines the numeric outcome codes shared by the line and
// RPC bindings, and the mapping between them and model errors.
package status

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Code is a wire status
type Code int

const (
	OK Code = iota
	ConnectionRefused
	ServerNotFound
	ConnectionError
	GameFull
	InvalidRequest
	NotFound
	Rejected
)

// Client-side outcomes with no model counterpart
var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrServerNotFound    = errors.New("server not found")
	ErrConnection        = errors.New("connection error")
)

// internalMessage replaces the detail of unclassified errors on the wire
const internalMessage = "internal server error"

var names = map[Code]string{
	OK:                "OK",
	ConnectionRefused: "CONNECTION_REFUSED",
	ServerNotFound:    "SERVER_NOT_FOUND",
	ConnectionError:   "CONNECTION_ERROR",
	GameFull:          "GAME_FULL",
	InvalidRequest:    "INVALID_REQUEST",
	NotFound:          "NOT_FOUND",
	Rejected:          "REJECTED",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "UNKNOWN(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is a known code
func (c Code) Valid() bool {
	_, ok := names[c]
	return ok
}

// FromError classifies err for the wire. nil is OK.
func FromError(err error) Code {
	if err == nil {
		return OK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	switch model.KindOf(err) {
	case model.KindCapacity:
		return GameFull
	case model.KindValidation:
		return InvalidRequest
	case model.KindNotFound:
		return NotFound
	case model.KindRejected:
		return Rejected
	}
	switch {
	case errors.Is(err, ErrConnectionRefused):
		return ConnectionRefused
	case errors.Is(err, ErrServerNotFound):
		return ServerNotFound
	}
	return ConnectionError
}

// Message is the text sent alongside a failure code. Internal errors are not
// described to clients.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	if FromError(err) == ConnectionError {
		return internalMessage
	}
	return err.Error()
}

// FromDialError classifies a failed dial
func FromDialError(err error) Code {
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ConnectionRefused
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH):
		return ServerNotFound
	default:
		return ConnectionError
	}
}

// Error is a failure received from, or destined for, the wire. It unwraps to
// the matching model sentinel where one can be identified.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New builds an Error and resolves its sentinel from the message text
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: sentinelFor(code, message)}
}

// Wrap builds an Error for a failure the client observed itself
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), cause: errors.Join(sentinelFor(code, ""), err)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Parse reads text in the "<code>: <message>" form produced by Error
func Parse(text string) (*Error, bool) {
	head, msg, ok := strings.Cut(text, ":")
	if !ok {
		return nil, false
	}
	n, err := strconv.Atoi(head)
	if err != nil || !Code(n).Valid() || Code(n) == OK {
		return nil, false
	}
	return New(Code(n), strings.TrimPrefix(msg, " ")), true
}

var sentinels = map[Code][]error{
	InvalidRequest: {model.ErrInvalidNickname, model.ErrInvalidCapacity, model.ErrOutOfRange, model.ErrMalformedRequest},
	NotFound:       {model.ErrPlayerNotFound, model.ErrGameNotFound, model.ErrResultNotFound},
	Rejected: {
		model.ErrNotSeated, model.ErrCellLocked, model.ErrGameComplete,
		model.ErrNicknameTaken, model.ErrNotRegistered, model.ErrNoCurrentGame,
	},
}

func sentinelFor(code Code, message string) error {
	for _, s := range sentinels[code] {
		if strings.Contains(message, s.Error()) {
			return s
		}
	}
	switch code {
	case GameFull:
		return model.ErrGameFull
	case InvalidRequest:
		return model.ErrMalformedRequest
	case ConnectionRefused:
		return ErrConnectionRefused
	case ServerNotFound:
		return ErrServerNotFound
	case ConnectionError:
		return ErrConnection
	}
	return nil
}
