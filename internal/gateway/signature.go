package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// SignHex returns the hex-encoded HMAC-SHA256 of body under secret.
func SignHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHex checks a hex-encoded HMAC-SHA256 signature in constant time.
func VerifyHex(secret string, body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// VerifyHexOrBase64 accepts the HMAC in either encoding. The bank-transfer
// rail is inconsistent about which one it sends.
func VerifyHexOrBase64(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sum := mac.Sum(nil)

	if decoded, err := hex.DecodeString(signature); err == nil && hmac.Equal(sum, decoded) {
		return true
	}
	if decoded, err := base64.StdEncoding.DecodeString(signature); err == nil && hmac.Equal(sum, decoded) {
		return true
	}
	return false
}
