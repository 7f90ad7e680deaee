package passes

import (
	"github.com/ethereum/go-ethereum/common"

	"passmint/native/bank"
	"passmint/native/collection"
	"passmint/native/metadata"
)

// Issuer returns the issuer stored at addr.
func (e *Engine) Issuer(addr common.Address) (*Issuer, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	issuer, _, err := e.loadIssuer(addr)
	return issuer, err
}

// Receipt returns the open receipt stored at addr.
func (e *Engine) Receipt(addr common.Address) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.loadReceipt(addr)
}

// Activity returns the ledger stored at addr.
func (e *Engine) Activity(addr common.Address) (*ActivityLedger, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	ledger, _, err := e.loadActivity(addr)
	return ledger, err
}

// Collection returns the collection at addr or nil when none exists.
func (e *Engine) Collection(addr common.Address) (*collection.Collection, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.collections.Collection(addr)
}

// Member returns the member bound to memberAsset or nil when none exists.
func (e *Engine) Member(memberAsset common.Address) (*collection.Member, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.collections.Member(collection.MemberAddress(memberAsset))
}

// Metadata returns the display fields attached to asset.
func (e *Engine) Metadata(asset common.Address) ([]metadata.Field, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.metadata.Fields(asset)
}

// HoldingBalance returns owner's balance of asset.
func (e *Engine) HoldingBalance(owner, asset common.Address) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrStateNotConfigured
	}
	return bank.Balance(e.state, bank.HoldingAddress(owner, asset))
}
