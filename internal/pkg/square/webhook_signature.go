package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// VerifyWebhookSignature checks the x-square-hmacsha256-signature header
// against an HMAC-SHA256 of the exact raw request body. An absent
// signature or signing key always fails.
func VerifyWebhookSignature(payload []byte, signatureHeader, signingKey string) bool {
	sig := strings.TrimSpace(signatureHeader)
	key := strings.TrimSpace(signingKey)
	if sig == "" || key == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sig))
}
