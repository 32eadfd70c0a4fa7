// Package line implements the newline-terminated, colon-separated TCP
// protocol: one request line and one response line per connection.
package line

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/status"
)

// Header selects the action of a request
type Header string

const (
	HeaderRegister     Header = "1"
	HeaderConnectCheck Header = "2"
	HeaderListGames    Header = "3"
	HeaderCreateGame   Header = "4"
	HeaderJoinGame     Header = "5"
	HeaderMakeMove     Header = "6"
	HeaderFetchState   Header = "7"
	HeaderQuitGame     Header = "8"
	HeaderQuitServer   Header = "9"
)

const (
	// FieldSep separates header, fields and payload
	FieldSep = ":"
	// Terminator ends every message
	Terminator = "\n"
	// MaxLineLength bounds a single message
	MaxLineLength = 64 * 1024
)

// fieldCounts is both the expected field count and the split limit, so the
// last field keeps any further separators
var fieldCounts = map[Header]int{
	HeaderRegister:     1,
	HeaderConnectCheck: 1,
	HeaderListGames:    0,
	HeaderCreateGame:   2,
	HeaderJoinGame:     2,
	HeaderMakeMove:     5,
	HeaderFetchState:   1,
	HeaderQuitGame:     2,
	HeaderQuitServer:   1,
}

// Request is one decoded request line
type Request struct {
	Header Header
	Fields []string
}

// NewRequest builds a request, checking the field count
func NewRequest(h Header, fields ...string) (Request, error) {
	want, ok := fieldCounts[h]
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown header %q", model.ErrMalformedRequest, h)
	}
	if len(fields) != want {
		return Request{}, fmt.Errorf("%w: header %s takes %d fields, got %d", model.ErrMalformedRequest, h, want, len(fields))
	}
	for i, f := range fields {
		if strings.ContainsAny(f, "\r\n") {
			return Request{}, fmt.Errorf("%w: field %d contains a line break", model.ErrMalformedRequest, i)
		}
		// Only the last field may carry a separator.
		if i < len(fields)-1 && strings.Contains(f, FieldSep) {
			return Request{}, fmt.Errorf("%w: field %d contains %q", model.ErrMalformedRequest, i, FieldSep)
		}
	}
	return Request{Header: h, Fields: fields}, nil
}

// ParseRequest decodes a request line, with or without its terminator
func ParseRequest(line string) (Request, error) {
	line = trimTerminator(line)
	head, rest, hasRest := strings.Cut(line, FieldSep)

	h := Header(head)
	want, ok := fieldCounts[h]
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown header %q", model.ErrMalformedRequest, head)
	}
	if want == 0 {
		if rest != "" {
			return Request{}, fmt.Errorf("%w: header %s takes no fields", model.ErrMalformedRequest, h)
		}
		return Request{Header: h}, nil
	}
	if !hasRest {
		return Request{}, fmt.Errorf("%w: header %s takes %d fields", model.ErrMalformedRequest, h, want)
	}

	fields := strings.SplitN(rest, FieldSep, want)
	if len(fields) != want {
		return Request{}, fmt.Errorf("%w: header %s takes %d fields, got %d", model.ErrMalformedRequest, h, want, len(fields))
	}
	return Request{Header: h, Fields: fields}, nil
}

// Encode renders the request as a terminated line
func (r Request) Encode() string {
	var b strings.Builder
	b.WriteString(string(r.Header))
	b.WriteString(FieldSep)
	b.WriteString(strings.Join(r.Fields, FieldSep))
	b.WriteString(Terminator)
	return b.String()
}

// Int parses field i as a decimal integer
func (r Request) Int(i int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.Fields[i]))
	if err != nil {
		return 0, fmt.Errorf("%w: field %d is not a number: %q", model.ErrMalformedRequest, i, r.Fields[i])
	}
	return n, nil
}

// Response is one decoded response line
type Response struct {
	Status  status.Code
	Payload string
}

// ParseResponse decodes a response line
func ParseResponse(line string) (Response, error) {
	line = trimTerminator(line)
	head, payload, _ := strings.Cut(line, FieldSep)

	n, err := strconv.Atoi(head)
	if err != nil || !status.Code(n).Valid() {
		return Response{}, fmt.Errorf("%w: bad status %q", model.ErrMalformedRequest, head)
	}
	return Response{Status: status.Code(n), Payload: payload}, nil
}

// Encode renders the response as a terminated line
func (r Response) Encode() string {
	return strconv.Itoa(int(r.Status)) + FieldSep + r.Payload + Terminator
}

func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, Terminator)
	return strings.TrimSuffix(line, "\r")
}
