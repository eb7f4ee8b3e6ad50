package dispatch

import (
	"crypto/rand"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	tokenPrefix     = "WG"
	tokenRandLength = 6
	base36Alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// TokenIssuer mints dispatch tokens: WG-<PLATE>-<BASE36 unix ms>-<6 random>.
// Tokens are traceability handles, not credentials.
type TokenIssuer struct {
	random io.Reader
	seq    atomic.Uint64
}

// NewTokenIssuer returns an issuer reading randomness from random.
// A nil reader uses crypto/rand.
func NewTokenIssuer(random io.Reader) *TokenIssuer {
	if random == nil {
		random = rand.Reader
	}
	return &TokenIssuer{random: random}
}

// Issue builds a token for registration at the given instant.
func (t *TokenIssuer) Issue(registration string, at time.Time) string {
	plate := sanitizePlate(registration)
	if plate == "" {
		plate = "NA"
	}
	stamp := strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
	return tokenPrefix + "-" + plate + "-" + stamp + "-" + t.randomSuffix(at)
}

func (t *TokenIssuer) randomSuffix(at time.Time) string {
	buf := make([]byte, tokenRandLength)
	if _, err := io.ReadFull(t.random, buf); err != nil {
		// Fall back to clock and sequence so a broken source still yields distinct tokens.
		n := uint64(at.UnixNano()) ^ (t.seq.Add(1) * 0x9E3779B97F4A7C15)
		for i := range buf {
			buf[i] = byte(n >> (8 * i))
		}
	}
	out := make([]byte, tokenRandLength)
	for i, b := range buf {
		out[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}
	return string(out)
}

func sanitizePlate(registration string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(registration) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
