package cas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// KeyLength is the number of hex characters kept from the SHA-256 digest.
const KeyLength = 12

// Canonicalize returns the canonical serialization of a turn sequence: a
// compact JSON array of {"role","content","timestamp"} objects with HTML
// escaping disabled. A nil sequence serializes as "[]".
//
// The output matches JSON.stringify for valid UTF-8 text except that U+2028
// and U+2029 are always escaped. Invalid UTF-8 is replaced by U+FFFD, so
// callers validate turns with ValidateTurns before relying on the key.
func Canonicalize(turns []Turn) []byte {
	if turns == nil {
		turns = []Turn{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Turn only holds strings, encoding cannot fail.
	if err := enc.Encode(turns); err != nil {
		panic("failed to encode turns: " + err.Error())
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// ComputeKey returns the content key for a turn sequence: the first
// KeyLength hex characters of the SHA-256 digest of its canonical form.
func ComputeKey(turns []Turn) string {
	h := sha256.Sum256(Canonicalize(turns))
	return hex.EncodeToString(h[:])[:KeyLength]
}

// IsKey reports whether s looks like a content key.
func IsKey(s string) bool {
	if len(s) != KeyLength {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// CheckKey returns ErrInvalidKey when s is not a well-formed content key.
func CheckKey(s string) error {
	if !IsKey(s) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return nil
}

// KeyFromReference recovers the content key from a reference locator
// produced by any Store's Locate method, e.g. "/data/content/3f2a9c1b7d4e.json"
// or "sqlite://3f2a9c1b7d4e". Plain keys are returned unchanged.
func KeyFromReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if IsKey(ref) {
		return ref
	}

	if i := strings.Index(ref, "://"); i >= 0 {
		ref = ref[i+3:]
	}

	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	return strings.TrimSuffix(base, ".json")
}
