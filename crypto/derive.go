package crypto

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const deriveDomain = "passmint/derive/v1"

// Derive maps a namespace and an ordered list of seeds to a stable address.
// Every seed is length-prefixed so ("ab","c") and ("a","bc") never collide.
// The same inputs always yield the same address.
func Derive(namespace string, seeds ...[]byte) common.Address {
	buf := make([]byte, 0, len(deriveDomain)+len(namespace)+8+len(seeds)*36)
	buf = append(buf, deriveDomain...)
	buf = appendSeed(buf, []byte(namespace))
	for _, seed := range seeds {
		buf = appendSeed(buf, seed)
	}
	return common.BytesToAddress(crypto.Keccak256(buf)[12:])
}

func appendSeed(buf, seed []byte) []byte {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(seed)))
	buf = append(buf, prefix[:]...)
	return append(buf, seed...)
}
