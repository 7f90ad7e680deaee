package common

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
)

// AccountStore is the slice of state the allocation helpers need.
type AccountStore interface {
	Account(addr common.Address) (*types.Account, error)
	PutAccount(addr common.Address, account *types.Account) error
	DeleteAccount(addr common.Address) error
	NativeBalance(addr common.Address) (uint64, error)
	SetNativeBalance(addr common.Address, balance uint64) error
}

// CreateAccount allocates space bytes at addr for owner and funds the reserve
// from payer. The address must be unused.
func CreateAccount(st AccountStore, rent Rent, addr common.Address, owner string, space uint64, payer common.Address) (*types.Account, error) {
	existing, err := st.Account(addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, addr.Hex())
	}
	reserve, err := rent.MinimumBalance(space)
	if err != nil {
		return nil, err
	}
	if err := Debit(st, payer, reserve); err != nil {
		return nil, err
	}
	account := &types.Account{Owner: owner, Space: space, Reserve: reserve}
	if err := st.PutAccount(addr, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Realloc grows account to newSpace bytes. The owner must match; an account
// already at least newSpace bytes is left untouched. Any reserve shortfall
// for the larger allocation is moved from payer before the space grows.
// Existing data is preserved.
func Realloc(st AccountStore, rent Rent, addr common.Address, account *types.Account, owner string, newSpace uint64, payer common.Address) error {
	if account == nil {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, addr.Hex())
	}
	if account.Owner != owner {
		return ErrInvalidAccountOwner
	}
	if account.Space >= newSpace {
		return nil
	}
	required, err := rent.MinimumBalance(newSpace)
	if err != nil {
		return err
	}
	if required > account.Reserve {
		shortfall := required - account.Reserve
		if err := Debit(st, payer, shortfall); err != nil {
			return err
		}
		account.Reserve = required
	}
	account.Space = newSpace
	return st.PutAccount(addr, account)
}

// CloseAccount deletes the account at addr and credits its reserve to
// beneficiary. It returns the refunded amount.
func CloseAccount(st AccountStore, addr common.Address, owner string, beneficiary common.Address) (uint64, error) {
	account, err := st.Account(addr)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, addr.Hex())
	}
	if account.Owner != owner {
		return 0, ErrInvalidAccountOwner
	}
	if err := Credit(st, beneficiary, account.Reserve); err != nil {
		return 0, err
	}
	if err := st.DeleteAccount(addr); err != nil {
		return 0, err
	}
	return account.Reserve, nil
}

// Debit removes amount from the native balance of addr.
func Debit(st AccountStore, addr common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := st.NativeBalance(addr)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientReserve, addr.Hex(), balance, amount)
	}
	return st.SetNativeBalance(addr, balance-amount)
}

// Credit adds amount to the native balance of addr.
func Credit(st AccountStore, addr common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := st.NativeBalance(addr)
	if err != nil {
		return err
	}
	next, err := AddSize(balance, amount)
	if err != nil {
		return fmt.Errorf("native balance overflow for %s", addr.Hex())
	}
	return st.SetNativeBalance(addr, next)
}
