// Package driver holds what every cache driver shares.
package driver

import "errors"

// ErrKeyNotFound is returned by drivers for missing or expired keys.
var ErrKeyNotFound = errors.New("key not found")

// JoinPrefix combines a namespace and key prefix the way all drivers expect:
// "namespace:prefix".
func JoinPrefix(namespace, prefix string) string {
	if namespace == "" {
		return prefix
	}
	if prefix != "" {
		return namespace + ":" + prefix
	}
	return namespace + ":"
}
