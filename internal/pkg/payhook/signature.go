package payhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the header the billing provider sends with each event.
const SignatureHeader = "X-Billing-Signature"

// Sign computes the hex HMAC-SHA256 of the raw payload with the shared secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received hex signature against the expected HMAC
// of the raw payload. Comparison is constant-time and case-insensitive.
func VerifySignature(payload []byte, receivedHex, secret string) bool {
	if secret == "" || receivedHex == "" {
		return false
	}

	expected := Sign(payload, secret)
	received := strings.ToLower(strings.TrimSpace(receivedHex))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
