// Package krypto provides the small set of cryptographic helpers the social
// login host needs: opaque random tokens for server-held OAuth state and
// HS256 identity tokens handed back to the comment frontend.
//
// # State Tokens
//
//	// Opaque OAuth state: a random UUID without separators (32 characters)
//	state, err := krypto.GenerateStateToken()
//
// # Identity Tokens
//
//	signed, err := krypto.NewIdentityToken(key, krypto.IdentityClaims{
//	    Provider: "twitter",
//	    Name:     "Jane",
//	    RegisteredClaims: jwt.RegisteredClaims{Subject: "2244994945"},
//	}, 24*time.Hour)
//
//	claims, err := krypto.ParseIdentityToken(key, signed)
package krypto
