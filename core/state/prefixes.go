package state

import (
	"github.com/ethereum/go-ethereum/common"
)

var (
	accountPrefix = []byte("account/")
	nativePrefix  = []byte("native/")
	assetPrefix   = []byte("asset/")
	holdingPrefix = []byte("holding/")
)

func addressKey(prefix []byte, addr common.Address) []byte {
	buf := make([]byte, len(prefix)+common.AddressLength)
	copy(buf, prefix)
	copy(buf[len(prefix):], addr.Bytes())
	return buf
}

// AccountKey returns the state key of the account envelope at addr.
func AccountKey(addr common.Address) []byte { return addressKey(accountPrefix, addr) }

// NativeBalanceKey returns the state key of a native reserve balance.
func NativeBalanceKey(addr common.Address) []byte { return addressKey(nativePrefix, addr) }

// AssetKey returns the state key of an asset definition.
func AssetKey(addr common.Address) []byte { return addressKey(assetPrefix, addr) }

// HoldingKey returns the state key of a holding.
func HoldingKey(addr common.Address) []byte { return addressKey(holdingPrefix, addr) }
