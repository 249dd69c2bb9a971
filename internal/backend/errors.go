package backend

import (
	"errors"
	"fmt"
)

// ErrMissingEndpoint es un error de configuracion: el widget no puede iniciarse sin endpoint.
var ErrMissingEndpoint = errors.New("backend: endpoint must not be empty")

type ErrorKind string

const (
	// KindTransport cubre fallos de red y respuestas no 2xx.
	KindTransport ErrorKind = "transport"
	// KindProtocol cubre cuerpos vacios o que no son JSON valido.
	KindProtocol ErrorKind = "protocol"
)

// Error clasifica un fallo de una llamada al backend.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("backend: %s error (%s)", e.Kind, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s status=%d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode devuelve el status del backend, 0 si no hubo respuesta.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func newError(kind ErrorKind, status int, reason string, err error) *Error {
	return &Error{Kind: kind, StatusCode: status, Reason: reason, Err: err}
}

func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport
}

func IsProtocol(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindProtocol
}
