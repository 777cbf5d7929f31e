package krypto

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateStateToken returns an opaque, URL-safe OAuth state value: a random
// UUID with its separators stripped (32 lowercase hex characters).
func GenerateStateToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
