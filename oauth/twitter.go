package oauth

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// X (Twitter) OAuth 2.0 endpoints.
const (
	TwitterAuthURL     = "https://x.com/i/oauth2/authorize"
	TwitterTokenURL    = "https://api.x.com/2/oauth2/token"
	TwitterUserInfoURL = "https://api.x.com/2/users/me"
)

const twitterUserFields = "name,username,profile_image_url,url,email"

// TwitterProvider signs users in with X (Twitter) OAuth 2.0.
type TwitterProvider struct {
	baseProvider
}

type twitterUserResponse struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
		URL             string `json:"url"`
		Email           string `json:"email"`
	} `json:"data"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Type   string `json:"type"`
	} `json:"errors,omitempty"`
}

// NewTwitter creates the X provider. X requires confidential clients to
// authenticate with HTTP Basic at the token endpoint.
func NewTwitter(cfg ProviderConfig) *TwitterProvider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = TwitterAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TwitterTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = TwitterUserInfoURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"tweet.read", "users.read", "offline.access", "users.email"}
	}

	return &TwitterProvider{baseProvider{
		name:      ProviderTwitter,
		cfg:       cfg,
		authStyle: oauth2.AuthStyleInHeader,
	}}
}

// FetchProfile implements Provider.
func (p *TwitterProvider) FetchProfile(ctx context.Context, client *http.Client, _ *oauth2.Token) (*Identity, error) {
	body, err := p.getProfile(ctx, client, withQuery(p.cfg.UserInfoURL, url.Values{
		"user.fields": {twitterUserFields},
	}))
	if err != nil {
		return nil, err
	}

	var resp twitterUserResponse
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}

	// X reports partial failures (such as a withheld field) next to data.
	if len(resp.Errors) > 0 && resp.Data.ID == "" {
		e := resp.Errors[0]
		return nil, profileError(p.name, e.Type, firstNonEmpty(e.Detail, e.Title, "X rejected the profile request"))
	}

	u := resp.Data
	identity := &Identity{
		ID:     u.ID,
		Name:   firstNonEmpty(u.Name, u.Username),
		Email:  u.Email,
		URL:    u.URL,
		Avatar: u.ProfileImageURL,
	}
	if identity.URL == "" && u.Username != "" {
		identity.URL = "https://twitter.com/" + u.Username
	}
	return identity, nil
}
