package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gobeaver/beaver-social/krypto"
)

// StateKeyPrefix namespaces server-held login state in the store.
const StateKeyPrefix = "pkce:"

// DefaultStateTTL bounds how long a server-held login state lives.
const DefaultStateTTL = 10 * time.Minute

// StateManager issues the opaque state param and recovers LoginState from it.
type StateManager interface {
	// Issue persists or encodes s and returns the state param.
	Issue(ctx context.Context, s LoginState) (string, error)

	// Lookup recovers the state without using it up.
	Lookup(ctx context.Context, token string) (*LoginState, error)

	// Consume recovers the state and, where the strategy allows it, makes
	// sure no later call can recover it again.
	Consume(ctx context.Context, token string) (*LoginState, error)
}

// EncodeState serializes s as JSON and encodes it base64url without padding.
func EncodeState(s LoginState) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeState reverses EncodeState. Any failure, or a state with no
// verifier, yields nil.
func DecodeState(token string) *LoginState {
	if token == "" {
		return nil
	}

	// Tolerate both padded and unpadded input.
	if rem := len(token) % 4; rem != 0 {
		token += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}

	var s LoginState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if s.Verifier == "" {
		return nil
	}
	return &s
}

// StatelessStates carries the whole LoginState inside the state param.
// Nothing is stored, so a (code, state) pair can be replayed until the
// provider expires the code.
type StatelessStates struct{}

// Issue implements StateManager.
func (StatelessStates) Issue(_ context.Context, s LoginState) (string, error) {
	token, err := EncodeState(s)
	if err != nil {
		return "", internalError("failed to encode login state", err)
	}
	return token, nil
}

// Lookup implements StateManager.
func (StatelessStates) Lookup(_ context.Context, token string) (*LoginState, error) {
	s := DecodeState(token)
	if s == nil {
		return nil, invalidState(nil)
	}
	return s, nil
}

// Consume implements StateManager. It is the same as Lookup.
func (m StatelessStates) Consume(ctx context.Context, token string) (*LoginState, error) {
	return m.Lookup(ctx, token)
}

// StoredStates keeps LoginState in a StateStore under StateKeyPrefix and a
// random token; only the token travels through the browser.
type StoredStates struct {
	Store StateStore
	TTL   time.Duration

	// NewToken overrides token generation, mainly for tests.
	NewToken func() (string, error)
}

func (m StoredStates) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return DefaultStateTTL
}

// Issue implements StateManager.
func (m StoredStates) Issue(ctx context.Context, s LoginState) (string, error) {
	newToken := m.NewToken
	if newToken == nil {
		newToken = krypto.GenerateStateToken
	}
	token, err := newToken()
	if err != nil {
		return "", &Error{Kind: KindRandomness, Message: "failed to generate state token", Err: err}
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return "", internalError("failed to encode login state", err)
	}
	if err := m.Store.Put(ctx, StateKeyPrefix+token, string(raw), m.ttl()); err != nil {
		return "", internalError("failed to save login state", err)
	}
	return token, nil
}

// Lookup implements StateManager.
func (m StoredStates) Lookup(ctx context.Context, token string) (*LoginState, error) {
	if token == "" {
		return nil, invalidState(nil)
	}

	value, found, err := m.Store.Get(ctx, StateKeyPrefix+token)
	if err != nil {
		return nil, internalError("failed to load login state", err)
	}
	if !found {
		return nil, invalidState(nil)
	}
	return parseStored(value)
}

// Consume implements StateManager. With a StateTaker the read and delete are
// one atomic step; otherwise they are two calls and a concurrent callback
// may still win the race.
func (m StoredStates) Consume(ctx context.Context, token string) (*LoginState, error) {
	if token == "" {
		return nil, invalidState(nil)
	}
	key := StateKeyPrefix + token

	var (
		value string
		found bool
		err   error
	)
	if taker, ok := m.Store.(StateTaker); ok {
		value, found, err = taker.Take(ctx, key)
	} else {
		value, found, err = m.Store.Get(ctx, key)
		if err == nil && found {
			err = m.Store.Delete(ctx, key)
		}
	}
	if err != nil {
		return nil, internalError("failed to consume login state", err)
	}
	if !found {
		return nil, invalidState(nil)
	}
	return parseStored(value)
}

func parseStored(value string) (*LoginState, error) {
	var s LoginState
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return nil, invalidState(err)
	}
	if s.Verifier == "" {
		return nil, invalidState(errors.New("stored state has no verifier"))
	}
	return &s, nil
}
