package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
)

// Account returns the envelope stored at addr, or nil when none exists.
func (m *Manager) Account(addr common.Address) (*types.Account, error) {
	account := new(types.Account)
	ok, err := m.KVGet(AccountKey(addr), account)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", addr.Hex(), err)
	}
	if !ok {
		return nil, nil
	}
	return account, nil
}

// PutAccount stores the envelope at addr.
func (m *Manager) PutAccount(addr common.Address, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("account: nil envelope for %s", addr.Hex())
	}
	return m.KVPut(AccountKey(addr), account)
}

// DeleteAccount removes the envelope at addr.
func (m *Manager) DeleteAccount(addr common.Address) error {
	return m.KVDelete(AccountKey(addr))
}

// NativeBalance returns the native reserve balance of addr. Missing balances
// read as zero.
func (m *Manager) NativeBalance(addr common.Address) (uint64, error) {
	var balance uint64
	if _, err := m.KVGet(NativeBalanceKey(addr), &balance); err != nil {
		return 0, fmt.Errorf("load native balance %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

// SetNativeBalance overwrites the native reserve balance of addr. A zero
// balance removes the entry.
func (m *Manager) SetNativeBalance(addr common.Address, balance uint64) error {
	if balance == 0 {
		return m.KVDelete(NativeBalanceKey(addr))
	}
	return m.KVPut(NativeBalanceKey(addr), balance)
}
