package fetch

import (
	"errors"
	"fmt"
)

// Kind tags why a fetch failed so callers can decide between skipping,
// pausing or aborting.
type Kind int

const (
	KindHTTPStatus Kind = iota + 1
	KindRedirect
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindHTTPStatus:
		return "http status"
	case KindRedirect:
		return "redirect"
	case KindConnection:
		return "connection"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Location   string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRedirect:
		if e.Location != "" {
			return fmt.Sprintf("redirection detected: %s -> %s", e.URL, e.Location)
		}
		return fmt.Sprintf("redirection detected: %s", e.URL)
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
	default:
		return fmt.Sprintf("connection failed for %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the tag of a fetch failure anywhere in err's chain,
// or 0 when err did not come from this package.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

func IsRedirect(err error) bool   { return KindOf(err) == KindRedirect }
func IsConnection(err error) bool { return KindOf(err) == KindConnection }

// IsHTTP reports failures the server signals through the response
// itself: a bad status or a redirect.
func IsHTTP(err error) bool {
	k := KindOf(err)
	return k == KindHTTPStatus || k == KindRedirect
}
