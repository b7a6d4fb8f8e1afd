package admin

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// generateAccessKey mints an AKIA-prefixed access key so S3 tooling
// recognizes the format.
func generateAccessKey() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "AKIA" + strings.ToUpper(hex.EncodeToString(b))[:16], nil
}

// generateSecretKey mints a 40-character base64 secret.
func generateSecretKey() (string, error) {
	b := make([]byte, 30)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
