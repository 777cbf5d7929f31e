package oauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultServerUserAgent is the User-Agent the comment server itself sends
// when it completes a login on behalf of a client.
const DefaultServerUserAgent = "@waline"

// DefaultHTTPTimeout bounds each outbound call to a provider.
const DefaultHTTPTimeout = 30 * time.Second

// Flow runs the authorization-code-with-PKCE flow for one provider. A Flow
// holds no per-login data and is safe for concurrent use.
type Flow struct {
	provider        Provider
	states          StateManager
	client          *http.Client
	serverUserAgent string
	logger          *slog.Logger
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithStateManager selects how login state survives the redirect.
// The default is StatelessStates.
func WithStateManager(m StateManager) FlowOption {
	return func(f *Flow) {
		if m != nil {
			f.states = m
		}
	}
}

// WithHTTPClient sets the client used for token and profile calls.
func WithHTTPClient(c *http.Client) FlowOption {
	return func(f *Flow) {
		if c != nil {
			f.client = c
		}
	}
}

// WithServerUserAgent sets the marker that tells a server-side completion
// apart from a browser that must be forwarded.
func WithServerUserAgent(ua string) FlowOption {
	return func(f *Flow) {
		f.serverUserAgent = ua
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) FlowOption {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFlow creates a flow for p.
func NewFlow(p Provider, opts ...FlowOption) *Flow {
	f := &Flow{
		provider:        p,
		states:          StatelessStates{},
		client:          &http.Client{Timeout: DefaultHTTPTimeout},
		serverUserAgent: DefaultServerUserAgent,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("provider", p.Name())
	return f
}

// Provider returns the provider this flow drives.
func (f *Flow) Provider() Provider {
	return f.provider
}

// CallbackURL is base + "/" + provider, with no query string.
func CallbackURL(base, provider string) string {
	return strings.TrimRight(base, "/") + "/" + provider
}

// ForwardURL appends code and state to redirect, reusing its query if any.
func ForwardURL(redirect, code, state string) string {
	sep := "?"
	if strings.Contains(redirect, "?") {
		sep = "&"
	}
	return redirect + sep + url.Values{"code": {code}, "state": {state}}.Encode()
}

// BeginLogin returns the provider authorize URL for a fresh login.
func (f *Flow) BeginLogin(ctx context.Context, req BeginRequest) (string, error) {
	name := f.provider.Name()
	callback := CallbackURL(req.CallbackBase, name)

	pair, err := GeneratePKCE()
	if err != nil {
		return "", f.fail(ctx, StageAwaitingCode, asError(err, KindRandomness, name))
	}

	token, err := f.states.Issue(ctx, LoginState{
		Verifier:    pair.Verifier,
		Redirect:    req.Redirect,
		State:       req.State,
		CallbackURL: callback,
	})
	if err != nil {
		return "", f.fail(ctx, StageAwaitingCode, asError(err, KindInternal, name))
	}

	cfg := f.provider.OAuth2Config()
	cfg.RedirectURL = callback

	authURL := cfg.AuthCodeURL(token,
		oauth2.SetAuthURLParam("code_challenge", pair.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	f.logger.DebugContext(ctx, "oauth login started",
		"stage", StageAwaitingCode,
		"callback", callback,
		"forward", req.Redirect != "",
	)
	return authURL, nil
}

// CompleteLogin handles the provider callback. A missing code or state asks
// the caller to restart; a browser callback with a recovered redirect is
// forwarded without using up the state; otherwise the state is consumed,
// the code exchanged and the profile normalized.
func (f *Flow) CompleteLogin(ctx context.Context, req CallbackRequest) (*Result, error) {
	name := f.provider.Name()

	if req.Code == "" || req.State == "" {
		return &Result{Restart: true}, nil
	}

	login, err := f.states.Lookup(ctx, req.State)
	if err != nil {
		return nil, f.fail(ctx, StageAwaitingCode, asError(err, KindInvalidState, name))
	}
	f.logger.DebugContext(ctx, "oauth state recovered", "stage", StageStateRecovered)

	if login.Redirect != "" && req.UserAgent != f.serverUserAgent {
		f.logger.DebugContext(ctx, "oauth callback forwarded to client", "stage", StageStateRecovered)
		return &Result{Forward: ForwardURL(login.Redirect, req.Code, req.State)}, nil
	}

	login, err = f.states.Consume(ctx, req.State)
	if err != nil {
		return nil, f.fail(ctx, StageStateRecovered, asError(err, KindInvalidState, name))
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client)

	token, xerr := f.exchange(ctx, login, req.Code)
	if xerr != nil {
		return nil, f.fail(ctx, StageStateRecovered, xerr)
	}
	f.logger.DebugContext(ctx, "oauth token exchanged", "stage", StageTokenExchanged)

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = f.client.Timeout

	identity, err := f.provider.FetchProfile(ctx, client, token)
	if err != nil {
		return nil, f.fail(ctx, StageTokenExchanged, asError(err, KindProfileFetch, name))
	}
	f.logger.DebugContext(ctx, "oauth profile fetched", "stage", StageProfileFetched)

	if identity.ID == "" {
		return nil, f.fail(ctx, StageProfileFetched, profileError(name, "", "User profile has no id"))
	}
	identity.Provider = name

	f.logger.InfoContext(ctx, "oauth login completed", "stage", StageNormalized)
	return &Result{Identity: identity}, nil
}

func (f *Flow) exchange(ctx context.Context, login *LoginState, code string) (*oauth2.Token, *Error) {
	cfg := f.provider.OAuth2Config()
	cfg.RedirectURL = login.CallbackURL

	opts := append([]oauth2.AuthCodeOption{oauth2.VerifierOption(login.Verifier)},
		f.provider.ExchangeOptions()...)

	if w, ok := f.provider.(TokenTransportWrapper); ok {
		client := *f.client
		base := client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		client.Transport = w.WrapTokenTransport(base)
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &client)
	}

	token, err := cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, tokenExchangeError(f.provider.Name(), err)
	}
	return token, nil
}

func tokenExchangeError(provider string, err error) *Error {
	e := &Error{
		Kind:     KindTokenExchange,
		Provider: provider,
		Message:  "Failed to obtain access token",
		Err:      err,
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		e.Code = re.ErrorCode
		if re.ErrorDescription != "" {
			e.Message += ": " + re.ErrorDescription
		}
	}
	return e
}

// fail logs a failed login and returns err unchanged. Codes, tokens and
// verifiers are never logged.
func (f *Flow) fail(ctx context.Context, stage Stage, err *Error) error {
	level := slog.LevelWarn
	if err.HTTPStatus() >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	f.logger.Log(ctx, level, "oauth login failed",
		"stage", stage,
		"kind", err.Kind.String(),
		"code", err.Code,
		"error", err.Error(),
	)
	return err
}
