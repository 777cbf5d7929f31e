package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"io"
)

const verifierBytes = 32

// randReader is swapped in tests to simulate entropy failure.
var randReader io.Reader = rand.Reader

// GeneratePKCE returns a fresh verifier (32 random bytes, base64url without
// padding) and its S256 challenge.
func GeneratePKCE() (PKCEPair, error) {
	buf := make([]byte, verifierBytes)
	if _, err := io.ReadFull(randReader, buf); err != nil {
		return PKCEPair{}, &Error{Kind: KindRandomness, Message: "failed to generate PKCE verifier", Err: err}
	}

	verifier := base64.RawURLEncoding.EncodeToString(buf)
	return PKCEPair{
		Verifier:  verifier,
		Challenge: S256Challenge(verifier),
	}, nil
}

// S256Challenge hashes the verifier's string bytes, as RFC 7636 specifies.
func S256Challenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// VerifyPKCE reports whether verifier matches an S256 challenge.
func VerifyPKCE(verifier, challenge string) bool {
	return subtle.ConstantTimeCompare([]byte(S256Challenge(verifier)), []byte(challenge)) == 1
}
