package types

import "github.com/ethereum/go-ethereum/common"

// Account is the storage envelope every persisted record lives in. Kind tags
// the record type stored in Data. Space is the billed allocation in bytes and
// only ever grows; Reserve is the native balance locked against that
// allocation and refunded when the account is closed. Data carries the
// record's RLP encoding.
type Account struct {
	Owner   string
	Kind    string
	Space   uint64
	Reserve uint64
	Data    []byte
}

// Clone returns a deep copy of the envelope.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = append([]byte(nil), a.Data...)
	return &out
}

// InterestExtension configures interest accrual on an asset.
type InterestExtension struct {
	Authority common.Address
	Rate      Rate
}

// TransferFeeExtension configures a transfer fee on an asset.
type TransferFeeExtension struct {
	Authority   common.Address
	BasisPoints uint16
	MaximumFee  uint64
}

// Asset is a fungible or non-fungible token registered with the bank.
type Asset struct {
	Address           common.Address `rlp:"-"`
	Name              string
	Symbol            string
	URI               string
	Decimals          uint8
	Supply            uint64
	MintAuthority     common.Address
	PermanentDelegate common.Address
	UpdateAuthority   common.Address
	NonTransferable   bool
	Interest          *InterestExtension    `rlp:"nil"`
	TransferFee       *TransferFeeExtension `rlp:"nil"`
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	out := *a
	if a.Interest != nil {
		interest := *a.Interest
		out.Interest = &interest
	}
	if a.TransferFee != nil {
		fee := *a.TransferFee
		out.TransferFee = &fee
	}
	return &out
}

// Holding is an owner's balance of a single asset.
type Holding struct {
	Address common.Address `rlp:"-"`
	Owner   common.Address
	Asset   common.Address
	Amount  uint64
}
