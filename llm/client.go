package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
)

// Client is the interface for interacting with a Large Language Model. One
// Chat call makes exactly one outbound request; retry policy belongs to the
// caller. A reply carrying tool calls means the model requested execution,
// otherwise the content is the final answer for this turn.
type Client interface {
	Chat(ctx context.Context, messages []session.Message, toolset []tools.Tool) (*session.Message, error)
}

// Kind classifies provider failures so callers can pick a retry policy
// without knowing backend-specific error shapes.
type Kind int

const (
	// KindUnauthorized: bad or missing credential. Retrying cannot help.
	KindUnauthorized Kind = iota + 1
	// KindRateLimited: the backend signalled throttling. Retryable with backoff.
	KindRateLimited
	// KindMalformedResponse: the payload did not parse into a reply, or the
	// request itself was rejected as invalid. Fatal for this turn.
	KindMalformedResponse
	// KindNetwork: transport failure. Retryable a bounded number of times.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate limited"
	case KindMalformedResponse:
		return "malformed response"
	case KindNetwork:
		return "network"
	}
	return "unknown"
}

// Error is the normalized provider failure. No backend error shape leaks
// past this type.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// KindOf extracts the failure kind, defaulting to KindNetwork for errors
// that did not come through the normalized path.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindNetwork
}

// Retryable reports whether the caller may retry the request.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindNetwork || k == KindRateLimited
}

// classifyStatus maps an HTTP status to the error taxonomy.
func classifyStatus(provider string, status int, err error) *Error {
	switch {
	case status == 401 || status == 403:
		return newError(KindUnauthorized, provider, err)
	case status == 429:
		return newError(KindRateLimited, provider, err)
	case status >= 400 && status < 500:
		return newError(KindMalformedResponse, provider, err)
	default:
		return newError(KindNetwork, provider, err)
	}
}
