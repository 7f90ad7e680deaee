package bank

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/state"
	"passmint/core/types"
	"passmint/storage"
	"passmint/storage/trie"
)

var (
	usdc   = common.HexToAddress("0x0000000000000000000000000000000000005dc0")
	issuer = common.HexToAddress("0x00000000000000000000000000000000000001ff")
	alice  = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newState(t *testing.T) *state.Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	if err != nil {
		t.Fatalf("trie: %v", err)
	}
	return state.NewManager(tr)
}

func seedUSDC(t *testing.T, st State) {
	t.Helper()
	if err := RegisterAsset(st, &types.Asset{Address: usdc, Symbol: "USDC", Decimals: 6, MintAuthority: issuer}); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, owner := range []common.Address{alice, bob} {
		if _, err := OpenHolding(st, owner, usdc); err != nil {
			t.Fatalf("open holding: %v", err)
		}
	}
	if err := Mint(st, usdc, issuer, HoldingAddress(alice, usdc), 5_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func TestTransferMovesBalance(t *testing.T) {
	st := newState(t)
	seedUSDC(t, st)

	from, to := HoldingAddress(alice, usdc), HoldingAddress(bob, usdc)
	if err := Transfer(st, usdc, from, to, 1_000, 6); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got, _ := Balance(st, from); got != 4_000 {
		t.Fatalf("sender balance %d", got)
	}
	if got, _ := Balance(st, to); got != 1_000 {
		t.Fatalf("receiver balance %d", got)
	}
}

func TestTransferRejections(t *testing.T) {
	st := newState(t)
	seedUSDC(t, st)
	from, to := HoldingAddress(alice, usdc), HoldingAddress(bob, usdc)

	cases := []struct {
		name     string
		amount   uint64
		decimals uint8
		to       common.Address
		want     error
	}{
		{"zero amount", 0, 6, to, ErrInvalidAmount},
		{"wrong decimals", 10, 2, to, ErrDecimalsMismatch},
		{"overdraw", 10_000, 6, to, ErrInsufficientFunds},
		{"missing destination", 10, 6, common.HexToAddress("0xdead"), ErrHoldingNotFound},
	}
	for _, tc := range cases {
		if err := Transfer(st, usdc, from, tc.to, tc.amount, tc.decimals); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if got, _ := Balance(st, from); got != 5_000 {
		t.Fatalf("rejected transfers changed balance to %d", got)
	}
}

func TestNonTransferableAssetAndBurnByDelegate(t *testing.T) {
	st := newState(t)
	pass := common.HexToAddress("0x9a55")
	if err := RegisterAsset(st, &types.Asset{Address: pass, MintAuthority: issuer, PermanentDelegate: issuer, NonTransferable: true}); err != nil {
		t.Fatalf("register: %v", err)
	}
	holding, err := OpenHolding(st, alice, pass)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := OpenHolding(st, bob, pass); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Mint(st, pass, alice, holding.Address, 1); !errors.Is(err, ErrMintAuthority) {
		t.Fatalf("expected mint authority error, got %v", err)
	}
	if err := Mint(st, pass, issuer, holding.Address, 1); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := Transfer(st, pass, holding.Address, HoldingAddress(bob, pass), 1, 0); !errors.Is(err, ErrNonTransferable) {
		t.Fatalf("expected non-transferable, got %v", err)
	}
	if err := CloseAsset(st, pass, issuer); !errors.Is(err, ErrSupplyOutstanding) {
		t.Fatalf("expected supply outstanding, got %v", err)
	}
	if err := Burn(st, pass, bob, holding.Address, 1); !errors.Is(err, ErrBurnAuthority) {
		t.Fatalf("expected burn authority error, got %v", err)
	}
	if err := Burn(st, pass, issuer, holding.Address, 1); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if err := CloseHolding(st, holding.Address); err != nil {
		t.Fatalf("close holding: %v", err)
	}
	if err := CloseAsset(st, pass, issuer); err != nil {
		t.Fatalf("close asset: %v", err)
	}
	if _, err := OpenHolding(st, alice, pass); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected asset gone, got %v", err)
	}
}

func TestRegisterAssetRejectsDuplicates(t *testing.T) {
	st := newState(t)
	seedUSDC(t, st)
	if err := RegisterAsset(st, &types.Asset{Address: usdc}); !errors.Is(err, ErrAssetExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := RegisterAsset(st, &types.Asset{}); !errors.Is(err, ErrInvalidAssetAddress) {
		t.Fatalf("expected address error, got %v", err)
	}
}
