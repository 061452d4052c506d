package utils

import (
	"crypto/sha256"
	"strconv"
	"time"

	uuid "github.com/satori/go.uuid"
)

// Hash message using SHA256
func SHA256(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	return digest[:]
}

// NewAddress derives a fresh wallet address from a random uuid and the wall clock.
// Addresses are opaque identifiers, no key pair stands behind them.
func NewAddress() string {
	seed := uuid.NewV4().Bytes()
	seed = append(seed, strconv.FormatInt(time.Now().UnixNano(), 10)...)
	return BytesToHex(SHA256(seed))
}
