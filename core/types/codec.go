package types

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// Timestamp is a unix time in seconds. RLP has no signed integers, so the
// value is stored as its two's complement uint64.
type Timestamp int64

// Unix returns the timestamp as seconds since the epoch.
func (t Timestamp) Unix() int64 { return int64(t) }

func (t Timestamp) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, uint64(t))
}

func (t *Timestamp) DecodeRLP(s *rlp.Stream) error {
	v, err := s.Uint64()
	if err != nil {
		return err
	}
	*t = Timestamp(int64(v))
	return nil
}

// Rate is a signed rate in basis points.
type Rate int16

func (r Rate) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, uint64(int64(r)))
}

func (r *Rate) DecodeRLP(s *rlp.Stream) error {
	v, err := s.Uint64()
	if err != nil {
		return err
	}
	*r = Rate(int16(int64(v)))
	return nil
}
