package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"rentease/internal/models"
)

// VerifyWebhookSignature checks a Paymongo-Signature header of the form
// "t=<timestamp>,te=<test signature>,li=<live signature>". The signature is
// HMAC-SHA256 over "<timestamp>.<body>".
func VerifyWebhookSignature(header string, body []byte, secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: webhook secret not configured", models.ErrUnauthorized)
	}
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "te", "li":
			if v != "" {
				sigs = append(sigs, v)
			}
		}
	}
	if ts == "" || len(sigs) == 0 {
		return fmt.Errorf("%w: malformed webhook signature", models.ErrUnauthorized)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err == nil && hmac.Equal(expected, got) {
			return nil
		}
	}
	return fmt.Errorf("%w: webhook signature mismatch", models.ErrUnauthorized)
}
