// utils/random.go
package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomString returns a random alphanumeric string of length n.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphanumeric))))
		if err != nil {
			panic("failed to read random bytes")
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b)
}

// NewMerchantOrderID generates a gateway-visible order id: UTC timestamp
// plus a random alphanumeric suffix. The timestamp keeps ids sortable and
// the suffix makes collisions astronomically unlikely. Must stay strictly
// alphanumeric, the gateway rejects anything else.
func NewMerchantOrderID() string {
	return time.Now().UTC().Format("20060102150405") + GenerateRandomString(8)
}
