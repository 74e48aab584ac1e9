// Package llm defines the generator gateway: a single opaque call from
// an assembled prompt to raw text. The gateway classifies failures
// into a closed set of kinds so the enclosing tool can decide what is
// worth retrying — no retry policy lives here.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Request is the input to one generator call.
type Request struct {
	// System is the system instruction, Prompt the user content.
	System string
	Prompt string
	// Model is the provider model identifier.
	Model string
	// Timeout bounds the call; zero means the provider default.
	// Once issued, the remote call is not assumed to stop when the
	// caller abandons waiting.
	Timeout time.Duration
}

// ErrorKind is the closed failure taxonomy for generator calls.
type ErrorKind int

const (
	// KindTransient covers network failures and rate limits —
	// retryable by the caller with backoff.
	KindTransient ErrorKind = iota
	// KindFatal covers authentication and invalid-request failures —
	// retrying cannot help.
	KindFatal
	// KindTimeout means the caller-specified deadline elapsed.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error wraps a provider failure with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain. Errors that
// did not come from a Generator are treated as transient — the safest
// default for an unknown network-facing failure.
func KindOf(err error) ErrorKind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindTransient
}

// Generator is the pipeline's one network-facing boundary: prompt in,
// raw markdown text out. Implementations must honor Request.Timeout
// and return *Error for failures.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
