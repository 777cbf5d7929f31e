// Package oauth implements social login for a comment backend: Huawei ID,
// QQ Connect and X (Twitter), all through one OAuth 2.0
// authorization-code-with-PKCE flow.
//
// A Flow drives one provider. BeginLogin returns the authorize URL;
// CompleteLogin turns the callback's code and state into an Identity, or
// tells the caller to forward the browser to the client's redirect.
// Providers only supply endpoints, scopes and the profile mapping.
//
// # Login state
//
// The PKCE verifier, the client's redirect and its own state must survive
// the round trip through the provider. Two StateManager strategies exist:
//
//   - StatelessStates encodes everything into the state param (base64url
//     JSON). Nothing is stored, so a (code, state) pair stays replayable
//     until the provider expires the code.
//   - StoredStates keeps it in a StateStore under "pkce:<token>" and
//     consumes it at most once. NewCacheStateStore adapts any cache driver
//     (memory, redis, database).
//
// # Quick Start
//
//	cfg, err := oauth.GetConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry := oauth.NewRegistry(*cfg, oauth.WithLogger(logger))
//	for _, name := range registry.Names() {
//	    flow, _ := registry.Flow(name)
//	    mux.Handle("/oauth/"+name, oauth.NewHandler(flow))
//	}
//
// # Errors
//
// Every failure is an *Error with a Kind. errors.Is matches kinds against
// the sentinels (ErrInvalidState, ErrTokenExchange, ...) and HTTPStatus
// gives the status a handler should answer with. Handler writes failures
// as {"error": message, "code": providerCode}.
package oauth
