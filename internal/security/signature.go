package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Sign computes the HMAC used to authenticate ops API requests.
func Sign(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, ":")))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the presented signature matches in constant time.
func Verify(secret, presented string, parts ...string) bool {
	expected := Sign(secret, parts...)
	return hmac.Equal([]byte(expected), []byte(presented))
}
