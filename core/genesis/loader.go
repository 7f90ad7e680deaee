// core/genesis/loader.go
package genesis

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/state"
	"passmint/core/types"
	"passmint/native/bank"
)

// Apply writes the validated spec into manager. Every collection is applied
// in sorted order so the resulting root is independent of map iteration.
func Apply(spec *GenesisSpec, manager *state.Manager) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return fmt.Errorf("state manager must not be nil")
	}
	if spec.alloc == nil {
		if err := spec.validate(); err != nil {
			return err
		}
	}

	// 1) Assets (sorted by address)
	assets := append([]AssetSpec(nil), spec.Assets...)
	sort.Slice(assets, func(i, j int) bool {
		return bytes.Compare(assets[i].address.Bytes(), assets[j].address.Bytes()) < 0
	})
	mintAuthorities := make(map[common.Address]common.Address, len(assets))
	for i := range assets {
		a := &assets[i]
		if err := bank.RegisterAsset(manager, &types.Asset{
			Address:         a.address,
			Name:            a.Name,
			Symbol:          a.Symbol,
			URI:             a.URI,
			Decimals:        a.Decimals,
			MintAuthority:   a.mintAuthority,
			UpdateAuthority: a.mintAuthority,
			NonTransferable: a.NonTransferable,
		}); err != nil {
			return fmt.Errorf("register asset %s: %w", a.Symbol, err)
		}
		mintAuthorities[a.address] = a.mintAuthority
	}

	// 2) Native balances (sorted by address)
	addrs := make([]common.Address, 0, len(spec.alloc))
	for addr := range spec.alloc {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i].Bytes(), addrs[j].Bytes()) < 0 })
	for _, addr := range addrs {
		if err := manager.SetNativeBalance(addr, spec.alloc[addr]); err != nil {
			return fmt.Errorf("alloc %s: %w", addr.Hex(), err)
		}
	}

	// 3) Holdings (sorted by owner, then asset)
	holdings := append([]HoldingSpec(nil), spec.Holdings...)
	sort.Slice(holdings, func(i, j int) bool {
		if c := bytes.Compare(holdings[i].owner.Bytes(), holdings[j].owner.Bytes()); c != 0 {
			return c < 0
		}
		return bytes.Compare(holdings[i].asset.Bytes(), holdings[j].asset.Bytes()) < 0
	})
	for _, h := range holdings {
		holding, err := bank.OpenHolding(manager, h.owner, h.asset)
		if err != nil {
			return fmt.Errorf("holding %s/%s: %w", h.Owner, h.Asset, err)
		}
		if h.Amount == 0 {
			continue
		}
		if err := bank.Mint(manager, h.asset, mintAuthorities[h.asset], holding.Address, h.Amount); err != nil {
			return fmt.Errorf("holding %s/%s: %w", h.Owner, h.Asset, err)
		}
	}
	return nil
}
