package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// QQ Connect endpoints.
const (
	QQAuthURL     = "https://graph.qq.com/oauth2.0/authorize"
	QQTokenURL    = "https://graph.qq.com/oauth2.0/token"
	QQOpenIDURL   = "https://graph.qq.com/oauth2.0/me"
	QQUserInfoURL = "https://graph.qq.com/user/get_user_info"
)

// QQProvider signs users in with QQ Connect. The profile takes two calls:
// /oauth2.0/me for the openid and unionid, then get_user_info.
type QQProvider struct {
	baseProvider
}

type qqMe struct {
	ClientID         string      `json:"client_id"`
	OpenID           string      `json:"openid"`
	UnionID          string      `json:"unionid"`
	ErrCode          looseString `json:"errcode"`
	ErrMsg           string      `json:"errmsg"`
	Error            looseString `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

type qqUser struct {
	Ret          looseString `json:"ret"`
	Msg          string      `json:"msg"`
	Nickname     string      `json:"nickname"`
	Email        string      `json:"email"`
	FigureURLQQ2 string      `json:"figureurl_qq_2"`
	FigureURLQQ1 string      `json:"figureurl_qq_1"`
	FigureURLQQ  string      `json:"figureurl_qq"`
	FigureURL2   string      `json:"figureurl_2"`
	FigureURL1   string      `json:"figureurl_1"`
	FigureURL    string      `json:"figureurl"`
}

// NewQQ creates the QQ provider.
func NewQQ(cfg ProviderConfig) *QQProvider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = QQAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = QQTokenURL
	}
	if cfg.OpenIDURL == "" {
		cfg.OpenIDURL = QQOpenIDURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = QQUserInfoURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"get_user_info"}
	}

	return &QQProvider{baseProvider{
		name:      ProviderQQ,
		cfg:       cfg,
		authStyle: oauth2.AuthStyleInParams,
	}}
}

// ExchangeOptions asks the token endpoint for JSON instead of a query string.
func (p *QQProvider) ExchangeOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("fmt", "json")}
}

// WrapTokenTransport implements TokenTransportWrapper. QQ reports token
// errors on 200 with a numeric "error", which x/oauth2 expects as a string.
func (p *QQProvider) WrapTokenTransport(base http.RoundTripper) http.RoundTripper {
	return qqTokenTransport{base: base}
}

type qqTokenTransport struct {
	base http.RoundTripper
}

func (t qqTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if fixed, ok := quoteErrorCode(stripJSONP(body)); ok {
		body = fixed
		resp.Header.Set("Content-Type", "application/json")
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Del("Content-Length")
	return resp, nil
}

// quoteErrorCode rewrites a non-string "error" member of a JSON object into
// its string form. It reports false when body needs no change.
func quoteErrorCode(body []byte) ([]byte, bool) {
	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) != nil {
		return nil, false
	}
	raw, ok := obj["error"]
	if !ok || len(raw) == 0 || raw[0] == '"' {
		return nil, false
	}

	var code looseString
	if json.Unmarshal(raw, &code) != nil {
		return nil, false
	}
	quoted, err := json.Marshal(string(code))
	if err != nil {
		return nil, false
	}
	obj["error"] = quoted

	fixed, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	return fixed, true
}

// FetchProfile implements Provider.
func (p *QQProvider) FetchProfile(ctx context.Context, client *http.Client, token *oauth2.Token) (*Identity, error) {
	me, err := p.lookupOpenID(ctx, client, token.AccessToken)
	if err != nil {
		return nil, err
	}

	body, err := p.getProfile(ctx, client, withQuery(p.cfg.UserInfoURL, url.Values{
		"access_token":       {token.AccessToken},
		"openid":             {me.OpenID},
		"oauth_consumer_key": {firstNonEmpty(me.ClientID, p.cfg.ClientID)},
		"format":             {"json"},
	}))
	if err != nil {
		return nil, err
	}

	var u qqUser
	if err := p.decode(stripJSONP(body), &u); err != nil {
		return nil, err
	}
	if u.Ret != "0" {
		return nil, profileError(p.name, string(u.Ret), firstNonEmpty(u.Msg, "QQ rejected the profile request"))
	}

	avatar := firstNonEmpty(
		u.FigureURLQQ2,
		u.FigureURLQQ1,
		u.FigureURLQQ,
		u.FigureURL2,
		u.FigureURL1,
		u.FigureURL,
	)

	return &Identity{
		ID:     me.UnionID,
		Name:   firstNonEmpty(u.Nickname, "QQ User"),
		Email:  u.Email,
		Avatar: avatar,
	}, nil
}

func (p *QQProvider) lookupOpenID(ctx context.Context, client *http.Client, accessToken string) (*qqMe, error) {
	body, err := p.getProfile(ctx, client, withQuery(p.cfg.OpenIDURL, url.Values{
		"access_token": {accessToken},
		"unionid":      {"1"},
		"fmt":          {"json"},
	}))
	if err != nil {
		return nil, err
	}

	var me qqMe
	if err := p.decode(stripJSONP(body), &me); err != nil {
		return nil, err
	}
	if me.ErrCode.set() {
		return nil, profileError(p.name, string(me.ErrCode), firstNonEmpty(me.ErrMsg, "QQ rejected the access token"))
	}
	if me.Error.set() {
		return nil, profileError(p.name, string(me.Error), firstNonEmpty(me.ErrorDescription, "QQ rejected the access token"))
	}
	if me.UnionID == "" || me.OpenID == "" {
		return nil, &Error{
			Kind:     KindProfileFetch,
			Provider: p.name,
			Message:  "Missing unionid or openid in response",
			Status:   http.StatusBadRequest,
		}
	}
	return &me, nil
}
