package common

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
)

type memStore struct {
	accounts map[common.Address]*types.Account
	balances map[common.Address]uint64
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[common.Address]*types.Account),
		balances: make(map[common.Address]uint64),
	}
}

func (m *memStore) Account(addr common.Address) (*types.Account, error) {
	return m.accounts[addr].Clone(), nil
}

func (m *memStore) PutAccount(addr common.Address, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *memStore) DeleteAccount(addr common.Address) error {
	delete(m.accounts, addr)
	return nil
}

func (m *memStore) NativeBalance(addr common.Address) (uint64, error) {
	return m.balances[addr], nil
}

func (m *memStore) SetNativeBalance(addr common.Address, balance uint64) error {
	m.balances[addr] = balance
	return nil
}

var (
	testRent  = Rent{PerByteYear: 10, ExemptionYears: 2, AccountOverhead: 100}
	testOwner = "passes"
	recordA   = common.HexToAddress("0xaaaa")
	payer     = common.HexToAddress("0xfee0")
)

func TestMinimumBalance(t *testing.T) {
	got, err := testRent.MinimumBalance(50)
	if err != nil {
		t.Fatalf("minimum balance: %v", err)
	}
	if got != (100+50)*10*2 {
		t.Fatalf("unexpected minimum balance %d", got)
	}
	huge := Rent{PerByteYear: math.MaxUint64, ExemptionYears: 2, AccountOverhead: 1}
	if _, err := huge.MinimumBalance(1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestSizeArithmeticIsChecked(t *testing.T) {
	if _, err := AddSize(math.MaxUint64, 1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected add overflow, got %v", err)
	}
	if _, err := MulSize(math.MaxUint64/2+1, 2); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected mul overflow, got %v", err)
	}
	if got, err := MulSize(0, math.MaxUint64); err != nil || got != 0 {
		t.Fatalf("zero count: got %d err %v", got, err)
	}
}

func TestCreateAccountFundsReserve(t *testing.T) {
	st := newMemStore()
	st.balances[payer] = 10_000

	account, err := CreateAccount(st, testRent, recordA, testOwner, 100, payer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if account.Reserve != 4000 || st.balances[payer] != 6000 {
		t.Fatalf("unexpected reserve %d / payer %d", account.Reserve, st.balances[payer])
	}
	if _, err := CreateAccount(st, testRent, recordA, testOwner, 100, payer); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected account exists, got %v", err)
	}
}

func TestReallocNeverShrinks(t *testing.T) {
	st := newMemStore()
	st.balances[payer] = 100_000
	account, err := CreateAccount(st, testRent, recordA, testOwner, 200, payer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := st.balances[payer]
	account.Data = []byte{1, 2, 3}

	if err := Realloc(st, testRent, recordA, account, testOwner, 150, payer); err != nil {
		t.Fatalf("realloc smaller: %v", err)
	}
	if account.Space != 200 || st.balances[payer] != before {
		t.Fatalf("shrink request changed space %d or balance %d", account.Space, st.balances[payer])
	}

	if err := Realloc(st, testRent, recordA, account, testOwner, 260, payer); err != nil {
		t.Fatalf("realloc larger: %v", err)
	}
	stored := st.accounts[recordA]
	if stored.Space != 260 {
		t.Fatalf("expected space 260, got %d", stored.Space)
	}
	if stored.Reserve != (100+260)*20 {
		t.Fatalf("unexpected reserve %d", stored.Reserve)
	}
	if before-st.balances[payer] != 60*20 {
		t.Fatalf("payer charged %d, expected %d", before-st.balances[payer], 60*20)
	}
	if string(stored.Data) != string([]byte{1, 2, 3}) {
		t.Fatalf("realloc lost existing data")
	}
}

func TestReallocChecksOwnerAndFunds(t *testing.T) {
	st := newMemStore()
	st.balances[payer] = (100 + 10) * 20
	account, err := CreateAccount(st, testRent, recordA, testOwner, 10, payer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Realloc(st, testRent, recordA, account, "other", 20, payer); !errors.Is(err, ErrInvalidAccountOwner) {
		t.Fatalf("expected owner error, got %v", err)
	}
	err = Realloc(st, testRent, recordA, account, testOwner, 20, payer)
	if !errors.Is(err, ErrInsufficientReserve) || ClassOf(err) != ClassResource {
		t.Fatalf("expected resource error, got %v", err)
	}
	if account.Space != 10 {
		t.Fatalf("failed realloc grew space to %d", account.Space)
	}
	if err := Realloc(st, testRent, recordA, nil, testOwner, 20, payer); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCloseAccountRefundsBeneficiary(t *testing.T) {
	st := newMemStore()
	st.balances[payer] = 10_000
	if _, err := CreateAccount(st, testRent, recordA, testOwner, 0, payer); err != nil {
		t.Fatalf("create: %v", err)
	}
	beneficiary := common.HexToAddress("0xbe4e")
	refunded, err := CloseAccount(st, recordA, testOwner, beneficiary)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if refunded != 2000 || st.balances[beneficiary] != 2000 {
		t.Fatalf("unexpected refund %d / %d", refunded, st.balances[beneficiary])
	}
	if _, ok := st.accounts[recordA]; ok {
		t.Fatalf("account still present")
	}
	if _, err := CloseAccount(st, recordA, testOwner, beneficiary); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected not found on second close, got %v", err)
	}
}

func TestErrorClassSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", fmt.Errorf("%w: detail", ErrInsufficientReserve))
	if ClassOf(wrapped) != ClassResource {
		t.Fatalf("class lost through wrapping")
	}
	named, ok := AsError(wrapped)
	if !ok || named.Code != 6003 {
		t.Fatalf("unexpected named error %+v", named)
	}
	if ClassOf(errors.New("disk")) != ClassUnknown {
		t.Fatalf("plain errors must be unknown")
	}
}

func TestPauseSet(t *testing.T) {
	set := NewPauseSet(" Passes ")
	if err := Guard(set, "passes"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	set.Set("PASSES", false)
	if err := Guard(set, "passes"); err != nil {
		t.Fatalf("expected resumed, got %v", err)
	}
	if err := Guard(nil, "passes"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
}
