package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransport         = errors.New("game service unreachable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRejected          = errors.New("request rejected")
	ErrMalformedResponse = errors.New("malformed response")
)

// Kind classifies a failed request
type Kind int

const (
	KindTransport Kind = iota
	KindUnauthorized
	KindRejected
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindUnauthorized:
		return ErrUnauthorized
	case KindRejected:
		return ErrRejected
	default:
		return ErrMalformedResponse
	}
}

// Failure is the classified error returned by every gateway operation.
// Reason holds the service's structured response body, passed through unmodified.
type Failure struct {
	Kind   Kind
	Op     string
	Status int
	Reason json.RawMessage
	Err    error
}

func (f *Failure) Error() string {
	msg := f.Kind.sentinel().Error()
	if f.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, f.Status)
	}
	if detail := f.Message(); detail != "" {
		msg += ": " + detail
	} else if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return f.Op + ": " + msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel for the failure's kind
func (f *Failure) Is(target error) bool {
	return target == f.Kind.sentinel()
}

type reasonBody struct {
	MoveError     *string `json:"othelloMoveError"`
	DatabaseError *string `json:"othelloDatabaseError"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Failure) reason() reasonBody {
	var r reasonBody
	if len(f.Reason) > 0 {
		_ = json.Unmarshal(f.Reason, &r)
	}
	return r
}

// MoveError returns the game service's move rejection reason, if any
func (f *Failure) MoveError() (string, bool) {
	r := f.reason()
	if r.MoveError == nil {
		return "", false
	}
	return *r.MoveError, true
}

// DatabaseError returns the game service's storage failure reason, if any
func (f *Failure) DatabaseError() (string, bool) {
	r := f.reason()
	if r.DatabaseError == nil {
		return "", false
	}
	return *r.DatabaseError, true
}

// Message returns the most specific human readable reason carried by the response
func (f *Failure) Message() string {
	r := f.reason()
	switch {
	case r.MoveError != nil:
		return *r.MoveError
	case r.DatabaseError != nil:
		return *r.DatabaseError
	case r.Error != nil && r.Error.Message != "":
		return r.Error.Message
	case f.Kind == KindRejected || f.Kind == KindUnauthorized:
		return http.StatusText(f.Status)
	}
	return ""
}
