// Package bank keeps asset definitions and per-owner holdings. It provides
// the checked transfer, mint and burn primitives the passes engine relies on.
package bank

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
	"passmint/crypto"
	nativecommon "passmint/native/common"
)

const holdingNamespace = "bank"

var (
	ErrAssetNotFound       = nativecommon.NewError(6200, "AssetNotFound", nativecommon.ClassState, "Asset is not registered")
	ErrAssetExists         = nativecommon.NewError(6201, "AssetAlreadyExists", nativecommon.ClassState, "Asset is already registered")
	ErrHoldingNotFound     = nativecommon.NewError(6202, "HoldingNotFound", nativecommon.ClassState, "Holding does not exist")
	ErrHoldingMismatch     = nativecommon.NewError(6203, "HoldingMismatch", nativecommon.ClassState, "Holding belongs to a different asset")
	ErrInsufficientFunds   = nativecommon.NewError(6204, "InsufficientFunds", nativecommon.ClassResource, "Holding balance too low")
	ErrDecimalsMismatch    = nativecommon.NewError(6205, "DecimalsMismatch", nativecommon.ClassValidation, "Decimals do not match the asset")
	ErrNonTransferable     = nativecommon.NewError(6206, "NonTransferable", nativecommon.ClassState, "Asset cannot be transferred")
	ErrMintAuthority       = nativecommon.NewError(6207, "InvalidMintAuthority", nativecommon.ClassAuthorization, "Signer is not the mint authority")
	ErrBurnAuthority       = nativecommon.NewError(6208, "InvalidBurnAuthority", nativecommon.ClassAuthorization, "Signer may not burn from this holding")
	ErrInvalidAmount       = nativecommon.NewError(6209, "InvalidAmount", nativecommon.ClassValidation, "Amount must be positive")
	ErrSupplyOutstanding   = nativecommon.NewError(6210, "SupplyOutstanding", nativecommon.ClassState, "Asset still has supply")
	ErrHoldingNotEmpty     = nativecommon.NewError(6211, "HoldingNotEmpty", nativecommon.ClassState, "Holding still has a balance")
	ErrSupplyOverflow      = nativecommon.NewError(6212, "SupplyOverflow", nativecommon.ClassValidation, "Amount overflows supply")
	ErrInvalidAssetAddress = nativecommon.NewError(6213, "InvalidAssetAddress", nativecommon.ClassValidation, "Asset address must be set")
)

// State is the slice of state the bank needs.
type State interface {
	Asset(addr common.Address) (*types.Asset, error)
	PutAsset(asset *types.Asset) error
	DeleteAsset(addr common.Address) error
	Holding(addr common.Address) (*types.Holding, error)
	PutHolding(holding *types.Holding) error
	DeleteHolding(addr common.Address) error
}

// HoldingAddress returns the canonical holding of owner for asset.
func HoldingAddress(owner, asset common.Address) common.Address {
	return crypto.Derive(holdingNamespace, []byte("holding"), owner.Bytes(), asset.Bytes())
}

// RegisterAsset stores a new asset definition with zero supply.
func RegisterAsset(st State, asset *types.Asset) error {
	if asset == nil || asset.Address == (common.Address{}) {
		return ErrInvalidAssetAddress
	}
	existing, err := st.Asset(asset.Address)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrAssetExists, asset.Address.Hex())
	}
	stored := asset.Clone()
	stored.Supply = 0
	return st.PutAsset(stored)
}

func loadAsset(st State, addr common.Address) (*types.Asset, error) {
	asset, err := st.Asset(addr)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, addr.Hex())
	}
	return asset, nil
}

func loadHolding(st State, addr, asset common.Address) (*types.Holding, error) {
	holding, err := st.Holding(addr)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, addr.Hex())
	}
	if holding.Asset != asset {
		return nil, fmt.Errorf("%w: %s holds %s", ErrHoldingMismatch, addr.Hex(), holding.Asset.Hex())
	}
	return holding, nil
}

// OpenHolding returns the canonical holding of owner for asset, creating an
// empty one when missing.
func OpenHolding(st State, owner, asset common.Address) (*types.Holding, error) {
	if _, err := loadAsset(st, asset); err != nil {
		return nil, err
	}
	addr := HoldingAddress(owner, asset)
	holding, err := st.Holding(addr)
	if err != nil {
		return nil, err
	}
	if holding != nil {
		return holding, nil
	}
	holding = &types.Holding{Address: addr, Owner: owner, Asset: asset}
	if err := st.PutHolding(holding); err != nil {
		return nil, err
	}
	return holding, nil
}

// Balance returns the amount stored in holding. Missing holdings read as zero.
func Balance(st State, holding common.Address) (uint64, error) {
	h, err := st.Holding(holding)
	if err != nil {
		return 0, err
	}
	if h == nil {
		return 0, nil
	}
	return h.Amount, nil
}

// Transfer moves amount of asset between two existing holdings. decimals
// must match the asset definition.
func Transfer(st State, asset, from, to common.Address, amount uint64, decimals uint8) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	def, err := loadAsset(st, asset)
	if err != nil {
		return err
	}
	if def.Decimals != decimals {
		return fmt.Errorf("%w: asset has %d, got %d", ErrDecimalsMismatch, def.Decimals, decimals)
	}
	if def.NonTransferable {
		return ErrNonTransferable
	}
	source, err := loadHolding(st, from, asset)
	if err != nil {
		return err
	}
	dest, err := loadHolding(st, to, asset)
	if err != nil {
		return err
	}
	if source.Amount < amount {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, source.Amount, amount)
	}
	if from == to {
		return nil
	}
	credited, err := nativecommon.AddSize(dest.Amount, amount)
	if err != nil {
		return ErrSupplyOverflow
	}
	source.Amount -= amount
	dest.Amount = credited
	if err := st.PutHolding(source); err != nil {
		return err
	}
	return st.PutHolding(dest)
}

// Mint issues amount of new supply into holding. authority must be the
// asset's mint authority.
func Mint(st State, asset, authority, holding common.Address, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	def, err := loadAsset(st, asset)
	if err != nil {
		return err
	}
	if def.MintAuthority != authority {
		return ErrMintAuthority
	}
	dest, err := loadHolding(st, holding, asset)
	if err != nil {
		return err
	}
	supply, err := nativecommon.AddSize(def.Supply, amount)
	if err != nil {
		return ErrSupplyOverflow
	}
	balance, err := nativecommon.AddSize(dest.Amount, amount)
	if err != nil {
		return ErrSupplyOverflow
	}
	def.Supply = supply
	dest.Amount = balance
	if err := st.PutAsset(def); err != nil {
		return err
	}
	return st.PutHolding(dest)
}

// Burn destroys amount from holding. The holding owner or the asset's
// permanent delegate may burn.
func Burn(st State, asset, authority, holding common.Address, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	def, err := loadAsset(st, asset)
	if err != nil {
		return err
	}
	source, err := loadHolding(st, holding, asset)
	if err != nil {
		return err
	}
	if authority != source.Owner && (def.PermanentDelegate == (common.Address{}) || authority != def.PermanentDelegate) {
		return ErrBurnAuthority
	}
	if source.Amount < amount {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, source.Amount, amount)
	}
	source.Amount -= amount
	def.Supply -= amount
	if err := st.PutAsset(def); err != nil {
		return err
	}
	return st.PutHolding(source)
}

// CloseHolding removes an empty holding.
func CloseHolding(st State, holding common.Address) error {
	h, err := st.Holding(holding)
	if err != nil {
		return err
	}
	if h == nil {
		return nil
	}
	if h.Amount != 0 {
		return ErrHoldingNotEmpty
	}
	return st.DeleteHolding(holding)
}

// CloseAsset removes an asset whose supply has been fully burned. Only the
// mint authority may close it.
func CloseAsset(st State, asset, authority common.Address) error {
	def, err := loadAsset(st, asset)
	if err != nil {
		return err
	}
	if def.MintAuthority != authority {
		return ErrMintAuthority
	}
	if def.Supply != 0 {
		return fmt.Errorf("%w: %d outstanding", ErrSupplyOutstanding, def.Supply)
	}
	return st.DeleteAsset(asset)
}
