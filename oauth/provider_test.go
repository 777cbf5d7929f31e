package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
)

func TestProviderDefaults(t *testing.T) {
	tests := []struct {
		provider   Provider
		wantName   string
		wantOrigin string
		wantScopes []string
		wantStyle  oauth2.AuthStyle
	}{
		{
			provider:   NewHuawei(ProviderConfig{}),
			wantName:   "huawei",
			wantOrigin: "oauth-login.cloud.huawei.com",
			wantScopes: []string{"openid", "profile", "email"},
			wantStyle:  oauth2.AuthStyleInParams,
		},
		{
			provider:   NewQQ(ProviderConfig{}),
			wantName:   "qq",
			wantOrigin: "graph.qq.com",
			wantScopes: []string{"get_user_info"},
			wantStyle:  oauth2.AuthStyleInParams,
		},
		{
			provider:   NewTwitter(ProviderConfig{}),
			wantName:   "twitter",
			wantOrigin: "x.com",
			wantScopes: []string{"tweet.read", "users.read", "offline.access", "users.email"},
			wantStyle:  oauth2.AuthStyleInHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			p := tt.provider
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
			if got := p.Info().Origin; got != tt.wantOrigin {
				t.Errorf("Info().Origin = %q, want %q", got, tt.wantOrigin)
			}

			cfg := p.OAuth2Config()
			if len(cfg.Scopes) != len(tt.wantScopes) {
				t.Fatalf("Scopes = %v, want %v", cfg.Scopes, tt.wantScopes)
			}
			for i := range cfg.Scopes {
				if cfg.Scopes[i] != tt.wantScopes[i] {
					t.Errorf("Scopes[%d] = %q, want %q", i, cfg.Scopes[i], tt.wantScopes[i])
				}
			}
			if cfg.Endpoint.AuthStyle != tt.wantStyle {
				t.Errorf("AuthStyle = %v, want %v", cfg.Endpoint.AuthStyle, tt.wantStyle)
			}
		})
	}
}

func TestProviderCheck(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
		want bool
	}{
		{"both set", ProviderConfig{ClientID: "id", ClientSecret: "secret"}, true},
		{"missing secret", ProviderConfig{ClientID: "id"}, false},
		{"missing id", ProviderConfig{ClientSecret: "secret"}, false},
		{"empty", ProviderConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range []Provider{NewHuawei(tt.cfg), NewQQ(tt.cfg), NewTwitter(tt.cfg)} {
				if got := p.Check(); got != tt.want {
					t.Errorf("%s.Check() = %v, want %v", p.Name(), got, tt.want)
				}
			}
		})
	}
}

func TestProviderConfigDoesNotAlias(t *testing.T) {
	p := NewTwitter(ProviderConfig{})
	cfg := p.OAuth2Config()
	cfg.Scopes[0] = "mutated"

	if got := p.OAuth2Config().Scopes[0]; got != "tweet.read" {
		t.Errorf("provider scopes mutated through OAuth2Config(): %q", got)
	}
}

func TestQQExchangeOptions(t *testing.T) {
	if n := len(NewQQ(ProviderConfig{}).ExchangeOptions()); n != 1 {
		t.Errorf("QQ ExchangeOptions() len = %d, want 1", n)
	}
	if n := len(NewHuawei(ProviderConfig{}).ExchangeOptions()); n != 0 {
		t.Errorf("Huawei ExchangeOptions() len = %d, want 0", n)
	}
}

func TestLooseString(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantSet bool
	}{
		{`{"v": "invalid_token"}`, "invalid_token", true},
		{`{"v": 100016}`, "100016", true},
		{`{"v": 0}`, "0", false},
		{`{"v": null}`, "", false},
		{`{}`, "", false},
	}

	for _, tt := range tests {
		var v struct {
			V looseString `json:"v"`
		}
		if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
		}
		if string(v.V) != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, v.V, tt.want)
		}
		if v.V.set() != tt.wantSet {
			t.Errorf("set() for %s = %v, want %v", tt.in, v.V.set(), tt.wantSet)
		}
	}
}

func TestStripJSONP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`callback( {"openid":"1"} );`, `{"openid":"1"}`},
		{`callback({"openid":"1"})`, `{"openid":"1"}`},
		{`  {"openid":"1"}  `, `{"openid":"1"}`},
		{`plain`, `plain`},
	}

	for _, tt := range tests {
		if got := string(stripJSONP([]byte(tt.in))); got != tt.want {
			t.Errorf("stripJSONP(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithQuery(t *testing.T) {
	got := withQuery("https://graph.qq.com/oauth2.0/me?x=1", url.Values{"fmt": {"json"}})
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", got, err)
	}
	if u.Query().Get("x") != "1" || u.Query().Get("fmt") != "json" {
		t.Errorf("withQuery() = %q, lost a parameter", got)
	}
}

func TestErrorFields(t *testing.T) {
	tests := []struct {
		body     string
		wantCode string
		wantDesc string
	}{
		{`{"error":"invalid_token","error_description":"expired"}`, "invalid_token", "expired"},
		{`{"errcode":40001,"errmsg":"bad token"}`, "40001", "bad token"},
		{`{"title":"Unauthorized","detail":"Unauthorized"}`, "", "Unauthorized"},
		{`<html>`, "", ""},
	}

	for _, tt := range tests {
		code, desc := errorFields([]byte(tt.body))
		if code != tt.wantCode || desc != tt.wantDesc {
			t.Errorf("errorFields(%s) = (%q, %q), want (%q, %q)", tt.body, code, desc, tt.wantCode, tt.wantDesc)
		}
	}
}

func TestQuoteErrorCode(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		change bool
	}{
		{
			name:   "numeric code",
			body:   `{"error":100019,"error_description":"code to access token error"}`,
			want:   `{"error":"100019","error_description":"code to access token error"}`,
			change: true,
		},
		{name: "string code", body: `{"error":"100019"}`},
		{name: "token", body: `{"access_token":"t","expires_in":7776000}`},
		{name: "not json", body: `access_token=t&expires_in=7776000`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := quoteErrorCode([]byte(tt.body))
			if ok != tt.change {
				t.Fatalf("quoteErrorCode() changed = %v, want %v", ok, tt.change)
			}
			if ok && string(got) != tt.want {
				t.Errorf("quoteErrorCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQQTokenTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`{"error":100019,"error_description":"bad code"}`))
	}))
	defer srv.Close()

	rt := NewQQ(ProviderConfig{}).WrapTokenTransport(http.DefaultTransport)
	req, _ := http.NewRequest(http.MethodPost, srv.URL, nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("body does not decode with a string error: %v", err)
	}
	if body.Error != "100019" {
		t.Errorf("error = %q, want 100019", body.Error)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
