package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrInvalidSignature means the launch data's hash did not verify.
var ErrInvalidSignature = errors.New("identity: init data signature mismatch")

// Validate checks the host's HMAC-SHA256 signature over initData using the
// bot token. The data-check string is every key=value pair except hash,
// sorted and joined by newlines; the key is HMAC("WebAppData", botToken).
func Validate(initData, botToken string) error {
	if strings.TrimSpace(botToken) == "" {
		return errors.New("identity: bot token is empty")
	}
	values, err := url.ParseQuery(strings.TrimSpace(initData))
	if err != nil {
		return fmt.Errorf("identity: parsing init data: %w", err)
	}

	got := values.Get("hash")
	if got == "" {
		return ErrInvalidSignature
	}

	want := Sign(values, botToken)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(got))) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the hex signature for values, ignoring any hash field.
func Sign(values url.Values, botToken string) string {
	pairs := make([]string, 0, len(values))
	for k, vs := range values {
		if k == "hash" || len(vs) == 0 {
			continue
		}
		pairs = append(pairs, k+"="+vs[0])
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
