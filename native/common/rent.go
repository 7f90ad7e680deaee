package common

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// Rent prices storage. The minimum reserve for an allocation of n bytes is
// (AccountOverhead + n) * PerByteYear * ExemptionYears.
type Rent struct {
	PerByteYear     uint64
	ExemptionYears  uint64
	AccountOverhead uint64
}

// DefaultRent mirrors the reserve parameters of the reference network.
func DefaultRent() Rent {
	return Rent{PerByteYear: 3480, ExemptionYears: 2, AccountOverhead: 128}
}

// MinimumBalance returns the reserve required to keep space bytes alive.
func (r Rent) MinimumBalance(space uint64) (uint64, error) {
	total := new(uint256.Int).SetUint64(r.AccountOverhead)
	if _, overflow := total.AddOverflow(total, uint256.NewInt(space)); overflow {
		return 0, fmt.Errorf("%w: rent size", ErrSizeOverflow)
	}
	total.Mul(total, uint256.NewInt(r.PerByteYear))
	total.Mul(total, uint256.NewInt(r.ExemptionYears))
	if !total.IsUint64() {
		return 0, fmt.Errorf("%w: rent for %d bytes exceeds uint64", ErrSizeOverflow, space)
	}
	return total.Uint64(), nil
}

// AddSize sums sizes, failing on overflow.
func AddSize(parts ...uint64) (uint64, error) {
	var total uint64
	for _, part := range parts {
		if total > math.MaxUint64-part {
			return 0, ErrSizeOverflow
		}
		total += part
	}
	return total, nil
}

// MulSize multiplies count by width, failing on overflow.
func MulSize(count, width uint64) (uint64, error) {
	if count != 0 && width > math.MaxUint64/count {
		return 0, ErrSizeOverflow
	}
	return count * width, nil
}
