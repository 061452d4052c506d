package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		BytesToHex(SHA256([]byte{})))
}

func TestNewAddressIsFresh(t *testing.T) {
	a := NewAddress()
	b := NewAddress()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	_, err := HexToBytes(a)
	assert.Nil(t, err)
}
