package core

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// randRead is swapped in tests to simulate an entropy failure.
var randRead = rand.Read

// newSessionID returns a random, URL-safe server-side session identifier.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return strings.TrimRight(base32.StdEncoding.EncodeToString(b), "="), nil
}
