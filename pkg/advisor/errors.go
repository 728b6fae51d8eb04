// Package advisor holds the pieces of a sponsorship advisor turn that do not touch storage:
// intent detection, reply composition, the grounding gate and the error taxonomy.
package advisor

import (
	"context"
	"errors"
	"strings"

	"sponsor-advisor-be/pkg/llm"
	"sponsor-advisor-be/pkg/lock"
	"sponsor-advisor-be/pkg/matcher"
)

// Error categories surfaced to callers.
var (
	ErrInput              = errors.New("invalid input")
	ErrUnresolvedLocation = errors.New("business location unresolved")
	ErrRateLimited        = errors.New("upstream rate limited")
	ErrQuotaExhausted     = errors.New("upstream quota exhausted")
	ErrTransientIO        = errors.New("transient failure")
	ErrTimeout            = errors.New("turn timed out")
	ErrTurnInFlight       = errors.New("turn already in flight")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
)

var categories = []error{
	ErrInput, ErrUnresolvedLocation, ErrRateLimited, ErrQuotaExhausted,
	ErrTransientIO, ErrTimeout, ErrTurnInFlight, ErrNotFound, ErrUnauthorized,
}

// TurnError is a categorized failure. Message is safe to show to the user;
// Cause is kept for logging only.
type TurnError struct {
	Kind    error
	Message string
	Cause   error
}

func NewError(kind error, message string, cause error) *TurnError {
	return &TurnError{Kind: kind, Message: message, Cause: cause}
}

func (e *TurnError) Error() string {
	if e.Cause != nil {
		return e.Kind.Error() + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Kind.Error() + ": " + e.Message
	}
	return e.Kind.Error()
}

func (e *TurnError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// ContractViolation is raised when a composed reply references facts that the
// current turn did not produce. It is logged and replaced, never returned to users.
type ContractViolation struct {
	Violations []string
}

func (e *ContractViolation) Error() string {
	return "grounding violation: " + strings.Join(e.Violations, "; ")
}

// Translate maps any error onto a TurnError category.
func Translate(err error) *TurnError {
	if err == nil {
		return nil
	}

	var te *TurnError
	if errors.As(err, &te) {
		return te
	}

	switch {
	case errors.Is(err, llm.ErrQuotaExhausted):
		return NewError(ErrQuotaExhausted, "", err)
	case errors.Is(err, llm.ErrRateLimited):
		return NewError(ErrRateLimited, "", err)
	case errors.Is(err, matcher.ErrInvalidCriteria):
		return NewError(ErrInput, strings.TrimPrefix(err.Error(), matcher.ErrInvalidCriteria.Error()+": "), err)
	case errors.Is(err, lock.ErrLockTimeout):
		return NewError(ErrTurnInFlight, "", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrTimeout, "", err)
	case errors.Is(err, context.Canceled), errors.Is(err, llm.ErrUnavailable):
		return NewError(ErrTransientIO, "", err)
	}

	for _, kind := range categories {
		if errors.Is(err, kind) {
			return NewError(kind, "", err)
		}
	}
	return NewError(ErrTransientIO, "", err)
}

// UserMessage is the short, actionable text shown for an error.
func UserMessage(err error) string {
	te := Translate(err)
	if te == nil {
		return ""
	}
	if te.Message != "" {
		return te.Message
	}
	switch te.Kind {
	case ErrInput:
		return "Your request could not be processed. Please check your message and filters."
	case ErrUnresolvedLocation:
		return "We couldn't determine your business location. Please update your business profile."
	case ErrRateLimited:
		return "The advisor is receiving too many requests right now. Please try again shortly."
	case ErrQuotaExhausted:
		return "The advisor has run out of AI credits. Please add credits to continue."
	case ErrTimeout:
		return "The advisor took too long to respond. Please try again."
	case ErrTurnInFlight:
		return "Please wait for the previous reply to finish before sending another message."
	case ErrNotFound:
		return "Conversation not found."
	case ErrUnauthorized:
		return "Please sign in to continue."
	default:
		return "Something went wrong while processing your message. Please try again."
	}
}
