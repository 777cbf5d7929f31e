// Package oauthtest runs a fake provider that speaks the token and profile
// shapes of Huawei, QQ and X, for tests of the oauth package and its hosts.
package oauthtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/gobeaver/beaver-social/oauth"
)

// Fake credentials every provider config from the server uses.
const (
	ClientID     = "test-client"
	ClientSecret = "test-secret"
	AccessToken  = "test-access-token"
)

// Endpoint paths served by the fake.
const (
	PathAuthorize      = "/authorize"
	PathToken          = "/token"
	PathHuaweiProfile  = "/huawei/user/getUserInfo"
	PathQQMe           = "/qq/oauth2.0/me"
	PathQQUserInfo     = "/qq/user/get_user_info"
	PathTwitterProfile = "/twitter/2/users/me"
)

// TokenRequest is one recorded call to the token endpoint.
type TokenRequest struct {
	Form      url.Values
	BasicUser string
	BasicPass string
}

type response struct {
	status int
	body   any
}

// Server is a fake provider. Responses default to a successful login and
// can be replaced per path.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	responses     map[string]response
	tokenRequests []TokenRequest
	profileHits   map[string]int
}

// NewServer starts a fake provider. Close it when done.
func NewServer() *Server {
	s := &Server{
		responses:   make(map[string]response),
		profileHits: make(map[string]int),
	}
	s.Reset()

	mux := http.NewServeMux()
	mux.HandleFunc(PathAuthorize, s.handleAuthorize)
	mux.HandleFunc(PathToken, s.handleToken)
	for _, p := range []string{PathHuaweiProfile, PathQQMe, PathQQUserInfo, PathTwitterProfile} {
		mux.HandleFunc(p, s.handleProfile)
	}
	s.Server = httptest.NewServer(mux)
	return s
}

// Reset restores the default responses and forgets recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responses = map[string]response{
		PathToken: {http.StatusOK, map[string]any{
			"access_token": AccessToken,
			"token_type":   "bearer",
			"expires_in":   3600,
		}},
		PathHuaweiProfile: {http.StatusOK, map[string]any{
			"userId":      "hw-1001",
			"displayName": "Huawei User",
			"email":       "hw@example.com",
			"photoURL":    "https://img.example.com/hw.png",
		}},
		PathQQMe: {http.StatusOK, `callback( {"client_id":"` + ClientID + `","openid":"qq-open-1","unionid":"qq-union-1"} );`},
		PathQQUserInfo: {http.StatusOK, map[string]any{
			"ret":            0,
			"msg":            "",
			"nickname":       "QQ Nick",
			"figureurl_qq_1": "https://img.example.com/qq40.png",
			"figureurl":      "https://img.example.com/qq30.png",
		}},
		PathTwitterProfile: {http.StatusOK, map[string]any{
			"data": map[string]any{
				"id":                "tw-42",
				"name":              "",
				"username":          "waline",
				"profile_image_url": "https://img.example.com/tw.png",
			},
		}},
	}
	s.tokenRequests = nil
	s.profileHits = make(map[string]int)
}

// SetResponse replaces the response for path. A string body is written
// as-is; anything else is JSON-encoded.
func (s *Server) SetResponse(path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = response{status: status, body: body}
}

// TokenRequests returns the recorded token endpoint calls.
func (s *Server) TokenRequests() []TokenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TokenRequest(nil), s.tokenRequests...)
}

// ProfileHits reports how often path was called.
func (s *Server) ProfileHits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileHits[path]
}

// ProviderConfig points provider (huawei, qq or twitter) at the fake.
func (s *Server) ProviderConfig(provider string) oauth.ProviderConfig {
	cfg := oauth.ProviderConfig{
		ClientID:     ClientID,
		ClientSecret: ClientSecret,
		AuthURL:      s.URL + PathAuthorize,
		TokenURL:     s.URL + PathToken,
	}
	switch provider {
	case oauth.ProviderHuawei:
		cfg.UserInfoURL = s.URL + PathHuaweiProfile
	case oauth.ProviderQQ:
		cfg.OpenIDURL = s.URL + PathQQMe
		cfg.UserInfoURL = s.URL + PathQQUserInfo
	case oauth.ProviderTwitter:
		cfg.UserInfoURL = s.URL + PathTwitterProfile
	}
	return cfg
}

// Provider builds the named provider against the fake.
func (s *Server) Provider(provider string) oauth.Provider {
	cfg := s.ProviderConfig(provider)
	switch provider {
	case oauth.ProviderQQ:
		return oauth.NewQQ(cfg)
	case oauth.ProviderTwitter:
		return oauth.NewTwitter(cfg)
	default:
		return oauth.NewHuawei(cfg)
	}
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("response_type") != "code" || q.Get("client_id") != ClientID {
		http.Error(w, "bad authorize request", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := TokenRequest{Form: r.PostForm}
	req.BasicUser, req.BasicPass, _ = r.BasicAuth()

	s.mu.Lock()
	s.tokenRequests = append(s.tokenRequests, req)
	resp := s.responses[PathToken]
	s.mu.Unlock()

	write(w, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.profileHits[r.URL.Path]++
	resp := s.responses[r.URL.Path]
	s.mu.Unlock()

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer != AccessToken && r.URL.Query().Get("access_token") != AccessToken {
		write(w, response{http.StatusUnauthorized, map[string]any{
			"error":             "invalid_token",
			"error_description": "access token missing or wrong",
		}})
		return
	}

	write(w, resp)
}

func write(w http.ResponseWriter, resp response) {
	if resp.status == 0 {
		resp.status = http.StatusOK
	}
	if body, ok := resp.body.(string); ok {
		w.Header().Set("Content-Type", "text/javascript")
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(body))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_ = json.NewEncoder(w).Encode(resp.body)
}
