// Package semantic implements the response cache keyed by request
// fingerprints, with optional approximate matching on top of the exact-key
// fast path.
package semantic

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"

	"promptgate/internal/domain"
)

// Fingerprint is the derived, opaque cache key for a request.
type Fingerprint string

// MakeCacheKey derives a fingerprint from the ordered message list and the
// target model. Role, content, message order, and model are all part of the
// key; identical inputs always produce identical keys.
func MakeCacheKey(messages []domain.Message, model string) Fingerprint {
	h := sha256.New()
	h.Write([]byte("model:"))
	h.Write([]byte(norm.NFC.String(model)))
	h.Write([]byte{0x1e})
	for _, msg := range messages {
		h.Write([]byte(norm.NFC.String(msg.Role)))
		h.Write([]byte{0x1f})
		h.Write([]byte(norm.NFC.String(msg.Content)))
		h.Write([]byte{0x1e})
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// NormalizePrompt flattens messages into a consistent string used for
// approximate matching. Only the last user message matters: it carries the
// current query, while earlier history varies between otherwise-equivalent
// conversations.
func NormalizePrompt(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role == domain.RoleUser {
			return "user:" + norm.NFC.String(strings.TrimSpace(msg.Content))
		}
	}
	return ""
}
