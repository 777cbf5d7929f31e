package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// maxProfileBody caps how much of a profile response is read.
const maxProfileBody = 1 << 20

// ProviderConfig holds credentials and endpoints for one provider. Empty
// endpoints and scopes fall back to the provider's public defaults.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	OpenIDURL   string // QQ only: the /oauth2.0/me lookup

	Scopes []string
}

// Credentials returns the client id and secret.
func (c ProviderConfig) Credentials() Credentials {
	return Credentials{ClientID: c.ClientID, ClientSecret: c.ClientSecret}
}

// baseProvider implements the parts of Provider that are pure data.
type baseProvider struct {
	name      string
	cfg       ProviderConfig
	authStyle oauth2.AuthStyle
}

// Name implements Provider.
func (b *baseProvider) Name() string { return b.name }

// Check implements Provider.
func (b *baseProvider) Check() bool { return b.cfg.Credentials().Complete() }

// Info implements Provider. Origin is the authorize endpoint's hostname.
func (b *baseProvider) Info() Info {
	u, err := url.Parse(b.cfg.AuthURL)
	if err != nil {
		return Info{}
	}
	return Info{Origin: u.Hostname()}
}

// OAuth2Config implements Provider.
func (b *baseProvider) OAuth2Config() oauth2.Config {
	return oauth2.Config{
		ClientID:     b.cfg.ClientID,
		ClientSecret: b.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   b.cfg.AuthURL,
			TokenURL:  b.cfg.TokenURL,
			AuthStyle: b.authStyle,
		},
		Scopes: append([]string(nil), b.cfg.Scopes...),
	}
}

// ExchangeOptions implements Provider.
func (b *baseProvider) ExchangeOptions() []oauth2.AuthCodeOption { return nil }

// getProfile GETs rawURL and returns the body of a 2xx response. Transport
// failures and other statuses become KindProfileFetch errors carrying
// whatever error code the body names.
func (b *baseProvider) getProfile(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindProfileFetch, Provider: b.name, Message: "Failed to fetch user profile", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindProfileFetch, Provider: b.name, Message: "Failed to fetch user profile", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, &Error{Kind: KindProfileFetch, Provider: b.name, Message: "Failed to read user profile", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code, desc := errorFields(body)
		msg := fmt.Sprintf("Failed to fetch user profile: HTTP %d", resp.StatusCode)
		if desc != "" {
			msg = "Failed to fetch user profile: " + desc
		}
		return nil, profileError(b.name, code, msg)
	}
	return body, nil
}

func (b *baseProvider) decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Kind: KindProfileFetch, Provider: b.name, Message: "Malformed user profile response", Err: err}
	}
	return nil
}

// looseString decodes a JSON string or number into its text form. Providers
// disagree on whether error codes are quoted.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	*s = looseString(data)
	return nil
}

// set reports whether the field carries a real error code.
func (s looseString) set() bool {
	return s != "" && s != "0"
}

// errorFields pulls a code and description out of common error body shapes.
func errorFields(body []byte) (string, string) {
	var e struct {
		Error            looseString `json:"error"`
		ErrorDescription string      `json:"error_description"`
		ErrCode          looseString `json:"errcode"`
		ErrMsg           string      `json:"errmsg"`
		Title            string      `json:"title"`
		Detail           string      `json:"detail"`
	}
	if json.Unmarshal(body, &e) != nil {
		return "", ""
	}
	code := firstNonEmpty(string(e.Error), string(e.ErrCode))
	return code, firstNonEmpty(e.ErrorDescription, e.ErrMsg, e.Detail, e.Title)
}

// withQuery adds params to rawURL, keeping any query it already has.
func withQuery(rawURL string, params url.Values) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL + "?" + params.Encode()
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// stripJSONP unwraps `callback( {...} );` into the JSON inside.
func stripJSONP(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	start := bytes.IndexByte(trimmed, '(')
	end := bytes.LastIndexByte(trimmed, ')')
	if start < 0 || end <= start {
		return trimmed
	}
	return bytes.TrimSpace(trimmed[start+1 : end])
}
