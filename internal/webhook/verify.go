package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sort"
)

// SyncVerifier checks signatures from the email-sync provider:
// HMAC-SHA256 over the exact raw request body, hex encoded, carried in
// the X-Nylas-Signature header.
type SyncVerifier struct {
	secret []byte
}

func NewSyncVerifier(secret string) *SyncVerifier {
	return &SyncVerifier{secret: []byte(secret)}
}

// Verify fails closed: an unconfigured secret or a missing header never
// verifies, regardless of the body.
func (v *SyncVerifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// SMSVerifier checks signatures from the SMS provider: HMAC-SHA1 over
// the full request URL concatenated with the alphabetically-sorted POST
// parameter names and values, base64 encoded, carried in the
// X-Twilio-Signature header. The scheme is deliberately separate from
// SyncVerifier; the providers document incompatible constructions.
type SMSVerifier struct {
	authToken []byte
}

func NewSMSVerifier(authToken string) *SMSVerifier {
	return &SMSVerifier{authToken: []byte(authToken)}
}

func (v *SMSVerifier) Verify(url string, params map[string]string, signature string) bool {
	if len(v.authToken) == 0 || signature == "" {
		return false
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mac := hmac.New(sha1.New, v.authToken)
	mac.Write([]byte(url))
	for _, k := range keys {
		mac.Write([]byte(k))
		mac.Write([]byte(params[k]))
	}
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
