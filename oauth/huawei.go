package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Huawei ID endpoints.
const (
	HuaweiAuthURL     = "https://oauth-login.cloud.huawei.com/oauth2/v3/authorize"
	HuaweiTokenURL    = "https://oauth-login.cloud.huawei.com/oauth2/v3/token"
	HuaweiUserInfoURL = "https://account.cloud.huawei.com/user/getUserInfo"
)

// HuaweiProvider signs users in with Huawei ID.
type HuaweiProvider struct {
	baseProvider
}

type huaweiProfile struct {
	UserID           string      `json:"userId"`
	DisplayName      string      `json:"displayName"`
	Email            string      `json:"email"`
	PhotoURL         string      `json:"photoURL"`
	Error            looseString `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

// NewHuawei creates the Huawei provider.
func NewHuawei(cfg ProviderConfig) *HuaweiProvider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = HuaweiAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = HuaweiTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = HuaweiUserInfoURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "profile", "email"}
	}

	return &HuaweiProvider{baseProvider{
		name:      ProviderHuawei,
		cfg:       cfg,
		authStyle: oauth2.AuthStyleInParams,
	}}
}

// FetchProfile implements Provider.
func (p *HuaweiProvider) FetchProfile(ctx context.Context, client *http.Client, _ *oauth2.Token) (*Identity, error) {
	body, err := p.getProfile(ctx, client, p.cfg.UserInfoURL)
	if err != nil {
		return nil, err
	}

	var u huaweiProfile
	if err := p.decode(body, &u); err != nil {
		return nil, err
	}
	if u.Error.set() {
		return nil, profileError(p.name, string(u.Error),
			firstNonEmpty(u.ErrorDescription, "Huawei rejected the profile request"))
	}

	return &Identity{
		ID:     u.UserID,
		Name:   firstNonEmpty(u.DisplayName, u.UserID),
		Email:  u.Email,
		Avatar: u.PhotoURL,
	}, nil
}
