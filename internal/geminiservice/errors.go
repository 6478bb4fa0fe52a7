package geminiservice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingAPIKey is returned by NewClient before any request can be made.
	ErrMissingAPIKey = errors.New("gemini API key is not configured")

	// ErrInvalidResponse matches every *DecodeError through errors.Is.
	ErrInvalidResponse = errors.New("received an invalid response from the AI")
)

// TransportError means the call to Gemini itself failed: network error,
// non-2xx status, unreadable envelope, blocked prompt or empty candidate.
type TransportError struct {
	StatusCode int    // 0 when no HTTP response was received
	Body       string // truncated response body, if any
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("gemini request failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means Gemini answered but the text is not a single JSON
// document matching the declared schema. Raw keeps the offending text.
type DecodeError struct {
	Operation  string
	Raw        string
	Violations []Violation
	Err        error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s (%s)", ErrInvalidResponse.Error(), e.Operation)
	if len(e.Violations) > 0 {
		parts := make([]string, 0, len(e.Violations))
		for _, v := range e.Violations {
			parts = append(parts, v.String())
		}
		return msg + ": " + strings.Join(parts, "; ")
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrInvalidResponse }
