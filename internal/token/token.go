package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

const bytesNum = 32

// noExpirySentinel marks tokens that never expire. Unsubscribe links are
// handed out once and have no renewal path, so they must outlive any TTL.
var noExpirySentinel = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Issuer generates and validates confirmation/unsubscribe tokens.
type Issuer struct {
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(ttl time.Duration) *Issuer {
	return &Issuer{ttl: ttl, now: time.Now}
}

// Issue returns a 256-bit hex token. With noExpiry the expiry is a fixed
// far-future sentinel; otherwise it is now plus the configured TTL.
func (i *Issuer) Issue(noExpiry bool) (string, time.Time, error) {
	tokenBytes := make([]byte, bytesNum)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, err
	}
	tok := hex.EncodeToString(tokenBytes)

	if noExpiry {
		return tok, noExpirySentinel, nil
	}
	return tok, i.now().Add(i.ttl), nil
}

// Validate checks a token against its stored expiry. Unsubscribe tokens
// bypass the expiry check.
func (i *Issuer) Validate(tok string, expiry time.Time, isUnsubscribeToken bool) error {
	if tok == "" {
		return models.ErrInvalidToken
	}
	if !isUnsubscribeToken && i.now().After(expiry) {
		return models.ErrExpiredToken
	}
	return nil
}
