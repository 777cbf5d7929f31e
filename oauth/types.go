package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Provider names as they appear in callback paths and in Identity.Provider.
const (
	ProviderHuawei  = "huawei"
	ProviderQQ      = "qq"
	ProviderTwitter = "twitter"
)

// Provider is one social-login backend. Everything generic about the
// authorization-code flow lives in Flow; a Provider supplies endpoints,
// scopes and the profile mapping.
type Provider interface {
	// Name returns the provider name, also the last callback path segment.
	Name() string

	// Check reports whether credentials are configured.
	Check() bool

	// Info describes the provider for discovery endpoints.
	Info() Info

	// OAuth2Config returns client credentials, endpoints and scopes.
	// RedirectURL is filled in per login by the flow.
	OAuth2Config() oauth2.Config

	// ExchangeOptions returns extra parameters for the token request.
	ExchangeOptions() []oauth2.AuthCodeOption

	// FetchProfile loads and normalizes the user profile. client already
	// carries the bearer token.
	FetchProfile(ctx context.Context, client *http.Client, token *oauth2.Token) (*Identity, error)
}

// TokenTransportWrapper is implemented by providers whose token endpoint
// answers in a shape x/oauth2 cannot parse. The flow routes the token
// request through the returned transport.
type TokenTransportWrapper interface {
	WrapTokenTransport(base http.RoundTripper) http.RoundTripper
}

// Info is the public description of a provider.
type Info struct {
	Origin string `json:"origin"`
}

// Credentials are the client id and secret issued by a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Complete reports whether both values are set.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// PKCEPair is a code verifier and its S256 challenge.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// LoginState is what must survive between the authorize redirect and the
// callback.
type LoginState struct {
	Verifier    string `json:"verifier"`
	Redirect    string `json:"redirect,omitempty"`
	State       string `json:"state,omitempty"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// Identity is a provider profile normalized for the comment backend.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	URL      string `json:"url,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Provider string `json:"type"`
}

// Stage is a step of the callback flow.
type Stage string

const (
	StageAwaitingCode   Stage = "awaiting_code"
	StageStateRecovered Stage = "state_recovered"
	StageTokenExchanged Stage = "token_exchanged"
	StageProfileFetched Stage = "profile_fetched"
	StageNormalized     Stage = "normalized"
)

// BeginRequest starts a login.
type BeginRequest struct {
	// CallbackBase is the absolute URL the provider name is appended to.
	CallbackBase string
	// Redirect is where the client wants the code forwarded, if anywhere.
	Redirect string
	// State is the client's own opaque state, returned on forward.
	State string
}

// CallbackRequest carries the query of a provider callback.
type CallbackRequest struct {
	Code      string
	State     string
	UserAgent string
}

// Result is the outcome of CompleteLogin. Exactly one field is set.
type Result struct {
	Identity *Identity
	Forward  string
	Restart  bool
}
