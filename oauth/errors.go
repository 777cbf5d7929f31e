package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a login failure.
type Kind int

const (
	// KindInternal covers state store I/O and anything unclassified.
	KindInternal Kind = iota
	// KindConfigMissing means the provider is not registered.
	KindConfigMissing
	// KindInvalidState means the state param was absent, malformed or unknown.
	KindInvalidState
	// KindTokenExchange means the provider rejected the code or returned no token.
	KindTokenExchange
	// KindProfileFetch means the profile call failed, including body-level errors on 200.
	KindProfileFetch
	// KindRandomness means the random source failed.
	KindRandomness
)

func (k Kind) String() string {
	switch k {
	case KindConfigMissing:
		return "config_missing"
	case KindInvalidState:
		return "invalid_state"
	case KindTokenExchange:
		return "token_exchange"
	case KindProfileFetch:
		return "profile_fetch"
	case KindRandomness:
		return "randomness"
	default:
		return "internal"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrConfigMissing = errors.New("oauth provider not configured")
	ErrInvalidState  = errors.New("invalid oauth state")
	ErrTokenExchange = errors.New("oauth token exchange failed")
	ErrProfileFetch  = errors.New("oauth profile fetch failed")
	ErrEntropy       = errors.New("random source failure")
	ErrInternal      = errors.New("oauth internal error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfigMissing:
		return ErrConfigMissing
	case KindInvalidState:
		return ErrInvalidState
	case KindTokenExchange:
		return ErrTokenExchange
	case KindProfileFetch:
		return ErrProfileFetch
	case KindRandomness:
		return ErrEntropy
	default:
		return ErrInternal
	}
}

// Error is the single error type returned by flows and providers.
type Error struct {
	Kind     Kind
	Provider string // provider name, empty before a provider is involved
	Code     string // provider-original error code, if any
	Message  string // user-facing message written to the JSON body
	Status   int    // overrides the kind's default HTTP status when non-zero
	Err      error  // underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Provider != "" {
		msg = fmt.Sprintf("oauth [%s]: %s", e.Provider, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// HTTPStatus returns the status code a handler should answer with.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindConfigMissing:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusBadRequest
	case KindTokenExchange, KindProfileFetch:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to show the browser.
func (e *Error) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindInvalidState:
		return "Invalid OAuth state"
	case KindConfigMissing:
		return "OAuth provider not found"
	case KindTokenExchange:
		return "Failed to obtain access token"
	case KindProfileFetch:
		return "Failed to fetch user profile"
	default:
		return "Internal Server Error"
	}
}

func invalidState(err error) *Error {
	return &Error{Kind: KindInvalidState, Message: "Invalid OAuth state", Err: err}
}

func internalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

func profileError(provider, code, msg string) *Error {
	return &Error{Kind: KindProfileFetch, Provider: provider, Code: code, Message: msg}
}

// asError converts err into *Error, defaulting to kind and stamping provider.
func asError(err error, kind Kind, provider string) *Error {
	var oe *Error
	if !errors.As(err, &oe) {
		oe = &Error{Kind: kind, Err: err}
	}
	if oe.Provider == "" {
		oe.Provider = provider
	}
	return oe
}
