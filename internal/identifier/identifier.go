// Package identifier produces request IDs and human-readable short codes.
package identifier

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// shortCodeAlphabet excludes lowercase so codes survive being read aloud
// or typed from a chat message.
const shortCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ShortCodeLength is the fixed length of generated short codes (36^6
// combinations, collision handled by the caller via retry).
const ShortCodeLength = 6

// NewRequestID returns a globally-unique opaque ID. The time prefix gives
// rough chronological ordering for debugging; uniqueness comes from the
// UUID suffix.
func NewRequestID() string {
	return fmt.Sprintf("req_%s_%s",
		time.Now().UTC().Format("20060102T150405"),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// NewShortCode returns a 6-character code drawn from [A-Z0-9]. The caller
// must check the code against currently-active codes and regenerate on
// collision.
func NewShortCode() (string, error) {
	buf := make([]byte, ShortCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	code := make([]byte, ShortCodeLength)
	for i, b := range buf {
		code[i] = shortCodeAlphabet[int(b)%len(shortCodeAlphabet)]
	}
	return string(code), nil
}
