// Package idgen generates external identifiers for domain entities in the
// form "<prefix>_<base36-timestamp>_<random9>".
package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// New returns a new identifier of the form "<prefix>_<base36-ts>_<rand9>",
// e.g. "svc_m3x1a9_k2j8fz1pq".
func New(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return fmt.Sprintf("%s_%s_%s", prefix, ts, randomSuffix(9))
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failures are effectively unrecoverable on any
			// supported platform; fall back to a fixed placeholder rather
			// than panicking the caller's goroutine.
			buf[i] = randomAlphabet[0]
			continue
		}
		buf[i] = randomAlphabet[idx.Int64()]
	}
	return string(buf)
}

// Prefixes for each entity kind's short external ID.
const (
	PrefixService        = "svc"
	PrefixFailoverRule    = "rule"
	PrefixFailoverEvent   = "fo"
	PrefixSLATarget       = "sla"
	PrefixSLAMeasurement  = "meas"
	PrefixServiceEndpoint = "ep"
)
