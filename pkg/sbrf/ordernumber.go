package sbrf

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// NewOrderNumber returns a merchant order number of the form
// PREFIX-YYYYMMDD-HHMMSS-mmm-RRRR (UTC, milliseconds, 4 random digits).
// The gateway rejects a register call whose orderNumber was used before.
func NewOrderNumber(prefix string) string {
	now := time.Now().UTC()
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ORD"
	}
	return fmt.Sprintf("%s-%s-%03d-%04d", prefix, now.Format("20060102-150405"), millis, n.Int64())
}
