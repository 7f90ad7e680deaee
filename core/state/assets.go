package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
)

// Asset returns the asset registered at addr, or nil when none exists.
func (m *Manager) Asset(addr common.Address) (*types.Asset, error) {
	asset := new(types.Asset)
	ok, err := m.KVGet(AssetKey(addr), asset)
	if err != nil {
		return nil, fmt.Errorf("load asset %s: %w", addr.Hex(), err)
	}
	if !ok {
		return nil, nil
	}
	asset.Address = addr
	return asset, nil
}

// PutAsset stores asset under its address.
func (m *Manager) PutAsset(asset *types.Asset) error {
	if asset == nil {
		return fmt.Errorf("asset: nil definition")
	}
	return m.KVPut(AssetKey(asset.Address), asset)
}

// DeleteAsset removes the asset registered at addr.
func (m *Manager) DeleteAsset(addr common.Address) error {
	return m.KVDelete(AssetKey(addr))
}

// Holding returns the holding stored at addr, or nil when none exists.
func (m *Manager) Holding(addr common.Address) (*types.Holding, error) {
	holding := new(types.Holding)
	ok, err := m.KVGet(HoldingKey(addr), holding)
	if err != nil {
		return nil, fmt.Errorf("load holding %s: %w", addr.Hex(), err)
	}
	if !ok {
		return nil, nil
	}
	holding.Address = addr
	return holding, nil
}

// PutHolding stores holding under its address.
func (m *Manager) PutHolding(holding *types.Holding) error {
	if holding == nil {
		return fmt.Errorf("holding: nil record")
	}
	return m.KVPut(HoldingKey(holding.Address), holding)
}

// DeleteHolding removes the holding at addr.
func (m *Manager) DeleteHolding(addr common.Address) error {
	return m.KVDelete(HoldingKey(addr))
}
