package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gobeaver/beaver-social/krypto"
	"github.com/gobeaver/beaver-social/oauth"
)

// TokenResponder answers a completed login with {"token": ...}, an HS256
// token carrying the identity.
type TokenResponder struct {
	Key    []byte
	TTL    time.Duration
	Logger *slog.Logger
}

type tokenBody struct {
	Token string `json:"token"`
}

// RespondIdentity implements oauth.IdentityResponder.
func (t TokenResponder) RespondIdentity(w http.ResponseWriter, r *http.Request, id *oauth.Identity) {
	claims := krypto.IdentityClaims{
		Provider: id.Provider,
		Name:     id.Name,
		Email:    id.Email,
		Avatar:   id.Avatar,
	}
	claims.Subject = id.ID

	token, err := krypto.NewIdentityToken(t.Key, claims, t.TTL)
	if err != nil {
		if t.Logger != nil {
			t.Logger.ErrorContext(r.Context(), "failed to sign identity token", "provider", id.Provider, "err", err)
		}
		oauth.WriteError(w, err)
		return
	}
	oauth.WriteJSON(w, http.StatusOK, tokenBody{Token: token})
}
