// Package apierr defines the typed error-kind taxonomy shared by the REST
// surface and the components it wraps. REST handlers panic with an
// Error value; ui/rest/middleware.Recovery maps it to the JSON envelope.
package apierr

import (
	"fmt"
	"net/http"
)

// Kind is one of the error kinds the REST surface can report.
type Kind string

const (
	BadInput       Kind = "BAD_INPUT"
	BadConfig      Kind = "BAD_CONFIG"
	BadCron        Kind = "BAD_CRON"
	BadCredentials Kind = "BAD_CREDENTIALS"
	Unauthorized   Kind = "UNAUTHORIZED"
	NotFound       Kind = "NOT_FOUND"
	UnknownType    Kind = "UNKNOWN_TYPE"
	Duplicate      Kind = "DUPLICATE"
	GatewayError   Kind = "GATEWAY_ERROR"
	Internal       Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	BadInput:       http.StatusBadRequest,
	BadConfig:      http.StatusBadRequest,
	BadCron:        http.StatusBadRequest,
	BadCredentials: http.StatusUnauthorized,
	Unauthorized:   http.StatusUnauthorized,
	NotFound:       http.StatusNotFound,
	UnknownType:    http.StatusNotFound, // referencing a bot type_key that was never registered
	Duplicate:      http.StatusConflict,
	GatewayError:   http.StatusBadGateway,
	Internal:       http.StatusInternalServerError,
}

// Error is the panic/return value REST handlers use to carry a typed failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// StatusCode maps the kind to its HTTP status.
func (e *Error) StatusCode() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Envelope is the {error_kind, message} wire shape every REST error
// response shares, regardless of which Kind produced it.
type Envelope struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// AsEnvelope converts e to its wire shape.
func (e *Error) AsEnvelope() Envelope {
	return Envelope{ErrorKind: string(e.Kind), Message: e.Message}
}
