package k8s

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Kind classifies every failure surfaced by this package.
// The set is closed: Normalize never produces a kind outside of it.
type Kind string

const (
	KindUnknownContext      Kind = "UnknownContext"
	KindNoContextConfigured Kind = "NoContextConfigured"
	KindConnection          Kind = "ConnectionError"
	KindNotFound            Kind = "NotFound"
	KindAmbiguousContainer  Kind = "AmbiguousContainer"
	KindForbidden           Kind = "ForbiddenError"
	KindValidation          Kind = "ValidationError"
)

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrUnknownContext      = errors.New("unknown context")
	ErrNoContextConfigured = errors.New("no context configured")
	ErrConnection          = errors.New("connection error")
	ErrNotFound            = errors.New("not found")
	ErrAmbiguousContainer  = errors.New("ambiguous container")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation error")
)

// Sentinel returns the sentinel error matching the kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindUnknownContext:
		return ErrUnknownContext
	case KindNoContextConfigured:
		return ErrNoContextConfigured
	case KindConnection:
		return ErrConnection
	case KindNotFound:
		return ErrNotFound
	case KindAmbiguousContainer:
		return ErrAmbiguousContainer
	case KindForbidden:
		return ErrForbidden
	case KindValidation:
		return ErrValidation
	default:
		return nil
	}
}

// Ident identifies the object an operation was acting on.
type Ident struct {
	Context   string
	Namespace string
	Resource  string
	Name      string
}

// String renders the non-empty identity fields.
func (id Ident) String() string {
	parts := make([]string, 0, 4)
	if id.Context != "" {
		parts = append(parts, "context="+id.Context)
	}
	if id.Namespace != "" {
		parts = append(parts, "namespace="+id.Namespace)
	}
	if id.Resource != "" {
		parts = append(parts, "resource="+id.Resource)
	}
	if id.Name != "" {
		parts = append(parts, "name="+id.Name)
	}
	return strings.Join(parts, " ")
}

// merge fills fields of id that are empty from other.
func (id Ident) merge(other Ident) Ident {
	if id.Context == "" {
		id.Context = other.Context
	}
	if id.Namespace == "" {
		id.Namespace = other.Namespace
	}
	if id.Resource == "" {
		id.Resource = other.Resource
	}
	if id.Name == "" {
		id.Name = other.Name
	}
	return id
}

// Error is the single error type returned by the client.
type Error struct {
	Kind Kind
	Ident
	Message string

	// Containers lists the candidate containers of an AmbiguousContainer error.
	Containers []string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if ident := e.Ident.String(); ident != "" {
		b.WriteString(" [")
		b.WriteString(ident)
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of this error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.Sentinel()
}

func newError(kind Kind, id Ident, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Ident:   id,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// NewValidationError returns a ValidationError carrying the given identity.
func NewValidationError(id Ident, format string, args ...interface{}) *Error {
	return newError(KindValidation, id, nil, format, args...)
}

// KindOf returns the kind of err, or an empty kind when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Normalize maps any error returned by client-go (or by this package) to an
// *Error of exactly one kind, carrying the given identity.
//
// Unauthorized responses, timeouts, throttling, server errors and errors not
// recognised otherwise are reported as ConnectionError.
func Normalize(err error, id Ident) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		clone := *typed
		clone.Ident = typed.Ident.merge(id)
		return &clone
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindConnection, id, err, "request timed out")
	case errors.Is(err, context.Canceled):
		return newError(KindConnection, id, err, "request cancelled")
	case apierrors.IsNotFound(err):
		return newError(KindNotFound, id, nil, "%s %q not found", resourceOrObject(id), id.Name)
	case apierrors.IsForbidden(err):
		return newError(KindForbidden, id, err, "access to %s denied", resourceOrObject(id))
	case apierrors.IsUnauthorized(err):
		return newError(KindConnection, id, err, "credentials rejected by the API server")
	case apierrors.IsBadRequest(err), apierrors.IsInvalid(err):
		return newError(KindValidation, id, err, "request rejected by the API server")
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err):
		return newError(KindConnection, id, err, "API server timed out")
	case apierrors.IsTooManyRequests(err):
		return newError(KindConnection, id, err, "API server throttled the request")
	case apierrors.IsInternalError(err), apierrors.IsServiceUnavailable(err):
		return newError(KindConnection, id, err, "API server unavailable")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(KindConnection, id, err, "cannot reach the API server")
	}

	return newError(KindConnection, id, err, "request failed")
}

func resourceOrObject(id Ident) string {
	if id.Resource != "" {
		return id.Resource
	}
	return "object"
}
