package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"passmint/core/types"
	"passmint/storage"
	"passmint/storage/trie"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewManager(tr)
}

func TestKVRoundTripAndDelete(t *testing.T) {
	mgr := newTestManager(t)

	type record struct {
		Name  string
		Count uint64
	}
	require.NoError(t, mgr.KVPut([]byte("collection/x"), record{Name: "Guild", Count: 3}))

	var got record
	ok, err := mgr.KVGet([]byte("collection/x"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Guild", got.Name)
	require.Equal(t, uint64(3), got.Count)

	require.NoError(t, mgr.KVDelete([]byte("collection/x")))
	ok, err = mgr.KVGet([]byte("collection/x"), &got)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = mgr.KVGet(nil, &got)
	require.Error(t, err)
}

func TestAccountEnvelopeLifecycle(t *testing.T) {
	mgr := newTestManager(t)
	addr := common.HexToAddress("0xabc")

	missing, err := mgr.Account(addr)
	require.NoError(t, err)
	require.Nil(t, missing)

	account := &types.Account{Owner: "passes", Space: 150, Reserve: 1000, Data: []byte{0xc0}}
	require.NoError(t, mgr.PutAccount(addr, account))

	loaded, err := mgr.Account(addr)
	require.NoError(t, err)
	require.Equal(t, account, loaded)

	require.NoError(t, mgr.DeleteAccount(addr))
	loaded, err = mgr.Account(addr)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestNativeBalanceDefaultsToZero(t *testing.T) {
	mgr := newTestManager(t)
	addr := common.HexToAddress("0xfee")

	balance, err := mgr.NativeBalance(addr)
	require.NoError(t, err)
	require.Zero(t, balance)

	require.NoError(t, mgr.SetNativeBalance(addr, 42))
	balance, err = mgr.NativeBalance(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(42), balance)

	require.NoError(t, mgr.SetNativeBalance(addr, 0))
	balance, err = mgr.NativeBalance(addr)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestAssetAndHoldingAddressesAreRestored(t *testing.T) {
	mgr := newTestManager(t)
	assetAddr := common.HexToAddress("0xa55e7")
	holdingAddr := common.HexToAddress("0x401d")

	require.NoError(t, mgr.PutAsset(&types.Asset{Address: assetAddr, Symbol: "USDC", Decimals: 6, Supply: 10}))
	require.NoError(t, mgr.PutHolding(&types.Holding{Address: holdingAddr, Asset: assetAddr, Amount: 10}))

	asset, err := mgr.Asset(assetAddr)
	require.NoError(t, err)
	require.Equal(t, assetAddr, asset.Address)
	require.Equal(t, uint8(6), asset.Decimals)

	holding, err := mgr.Holding(holdingAddr)
	require.NoError(t, err)
	require.Equal(t, holdingAddr, holding.Address)
	require.Equal(t, uint64(10), holding.Amount)

	rootBefore := mgr.Root()
	require.NoError(t, mgr.DeleteHolding(holdingAddr))
	require.NotEqual(t, rootBefore, mgr.Root())
}
