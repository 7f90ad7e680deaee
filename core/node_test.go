package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passmint/core/events"
	"passmint/crypto"
	nativecommon "passmint/native/common"
	"passmint/native/passes"
	"passmint/storage"
)

var (
	nodeUSDC      = common.HexToAddress("0x0000000000000000000000000000000000005dc0")
	nodeMinter    = common.HexToAddress("0x00000000000000000000000000000000000001ff")
	nodeFeePayer  = common.HexToAddress("0x000000000000000000000000000000000000fee0")
	nodeAuthority = common.HexToAddress("0x00000000000000000000000000000000000a0701")
	nodeMember    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	nodeBound     = common.HexToAddress("0x00000000000000000000000000000000000b0a7d")
)

const nodeNow = int64(1_700_000_000)

type captured struct{ types []string }

func (c *captured) Emit(evt events.Event) { c.types = append(c.types, evt.EventType()) }

func writeGenesis(t *testing.T) string {
	t.Helper()
	body := `{
  "genesisTime": "2024-01-01T00:00:00Z",
  "assets": [{"address": "` + nodeUSDC.Hex() + `", "name": "USD Coin", "symbol": "USDC", "decimals": 6, "mintAuthority": "` + nodeMinter.Hex() + `"}],
  "alloc": {
    "` + crypto.FormatAddress(nodeFeePayer) + `": "1000000000000",
    "` + crypto.FormatAddress(nodeAuthority) + `": "1000000000000",
    "` + crypto.FormatAddress(nodeMember) + `": "1000000000000"
  },
  "holdings": [{"owner": "` + nodeMember.Hex() + `", "asset": "` + nodeUSDC.Hex() + `", "amount": 10000}]
}`
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestNode(t *testing.T, db storage.Database) (*Node, *captured) {
	t.Helper()
	node, err := NewNode(db, writeGenesis(t))
	require.NoError(t, err)
	node.SetNowFunc(func() int64 { return nodeNow })
	sink := &captured{}
	node.SetEmitter(sink)
	return node, sink
}

func nodeIssuerArgs() passes.CreateIssuerArgs {
	return passes.CreateIssuerArgs{
		Community:   "builders",
		Asset:       nodeBound,
		Name:        "Builders Guild",
		Description: "Membership passes for the builders guild",
		ImageURL:    "https://passes.example.com/guild.png",
		Payment:     passes.PaymentPolicy{UnitAmount: 1, UnitPrice: 500, PriceAsset: nodeUSDC, ValidityDays: 30},
		Application: passes.ApplicationPolicy{
			Identities: []passes.IdentityProvider{passes.IdentityDiscord},
			Payment:    passes.PaymentPolicy{UnitAmount: 1, UnitPrice: 1000, PriceAsset: nodeUSDC, ValidityDays: 30},
		},
		Metadata: passes.MetadataPolicy{Name: "Guild", Symbol: "GLD", URI: "https://passes.example.com/guild.json"},
	}
}

func TestNodeAppliesGenesisAtHeightZero(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, _ := newTestNode(t, db)

	assert.Equal(t, uint64(0), node.Height())
	assert.Equal(t, node.Root(), node.CommittedRoot())

	balance, err := node.HoldingBalance(nodeMember, nodeUSDC)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), balance)
	native, err := node.NativeBalance(nodeFeePayer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000), native)
}

func TestNodePublishesEventsOnlyOnSuccess(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, sink := newTestNode(t, db)
	ctx := context.Background()

	before := node.Root()
	_, err := node.CreateIssuer(ctx, passes.Call{FeePayer: nodeAuthority, Authority: nodeAuthority}, nodeIssuerArgs())
	require.ErrorIs(t, err, passes.ErrInvalidFeePayer)
	assert.Equal(t, before, node.Root())
	assert.Empty(t, sink.types)

	issuer, err := node.CreateIssuer(ctx, passes.Call{FeePayer: nodeFeePayer, Authority: nodeAuthority}, nodeIssuerArgs())
	require.NoError(t, err)
	assert.Equal(t, node.IssuerAddress(nodeBound, "Builders Guild"), issuer.Address)
	assert.Equal(t, []string{events.TypeIssuerCreated}, sink.types)
	assert.NotEqual(t, before, node.Root())

	stored, err := node.Issuer(issuer.Address)
	require.NoError(t, err)
	assert.Equal(t, issuer.Name, stored.Name)
}

func TestNodeDiscardsPartialTransition(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, sink := newTestNode(t, db)

	before := node.Root()
	boom := errors.New("boom")
	err := node.execute(context.Background(), "prepare_payment", func(engine *passes.Engine) error {
		_, err := engine.PreparePayment(passes.Call{FeePayer: nodeFeePayer, Authority: nodeMember}, passes.PreparePaymentArgs{
			Receiver: nodeAuthority,
			Asset:    nodeUSDC,
			Amount:   1000,
			Kind:     passes.ReceiptUser,
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, node.Root())
	assert.Empty(t, sink.types)

	receipt, err := node.Receipt(node.ReceiptAddress(nodeMember, nodeAuthority, nodeUSDC))
	assert.Nil(t, receipt)
	require.ErrorIs(t, err, passes.ErrReceiptNotFound)
	balance, err := node.HoldingBalance(nodeMember, nodeUSDC)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), balance)
}

func TestNodeMembershipFlow(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, sink := newTestNode(t, db)
	ctx := context.Background()
	call := passes.Call{FeePayer: nodeFeePayer, Authority: nodeAuthority}

	issuer, err := node.CreateIssuer(ctx, call, nodeIssuerArgs())
	require.NoError(t, err)

	_, err = node.PreparePayment(ctx, passes.Call{FeePayer: nodeFeePayer, Authority: nodeMember}, passes.PreparePaymentArgs{
		Receiver: nodeAuthority,
		Asset:    nodeUSDC,
		Amount:   1000,
		Kind:     passes.ReceiptUser,
	})
	require.NoError(t, err)

	memberAsset := common.HexToAddress("0x0000000000000000000000000000000000000001")
	member, err := node.MintMembership(ctx, call, passes.MintMembershipArgs{
		Issuer:      issuer.Address,
		Recipient:   nodeMember,
		MemberAsset: memberAsset,
		Name:        "Member",
		Symbol:      "MBR",
		URI:         "https://passes.example.com/member.json",
	})
	require.NoError(t, err)
	assert.Equal(t, nodeMember, member.Owner)

	ledger, err := node.CreateActivity(ctx, call, passes.CreateActivityArgs{
		Issuer:      issuer.Address,
		MemberAsset: memberAsset,
		Label:       "season one",
	})
	require.NoError(t, err)
	assert.Equal(t, node.ActivityAddress(memberAsset, "season one"), ledger.Address)

	ledger, err = node.AppendActivityEntry(ctx, call, passes.AppendActivityEntryArgs{
		Activity: ledger.Address,
		Message:  "shipped the first release",
	})
	require.NoError(t, err)
	require.Len(t, ledger.Entries, 1)
	assert.Equal(t, nodeNow, int64(ledger.Entries[0].Timestamp))

	assert.Equal(t, []string{
		events.TypeIssuerCreated,
		events.TypePaymentPrepared,
		events.TypeReceiptRedeemed,
		events.TypeMembershipMinted,
		events.TypeActivityCreated,
		events.TypeActivityEntryAppended,
	}, sink.types)
}

func TestNodeRejectsWhilePaused(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, _ := newTestNode(t, db)

	node.Pauses().Set(passes.ModuleName, true)
	_, err := node.CreateIssuer(context.Background(), passes.Call{FeePayer: nodeFeePayer, Authority: nodeAuthority}, nodeIssuerArgs())
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)

	node.Pauses().Set(passes.ModuleName, false)
	_, err = node.CreateIssuer(context.Background(), passes.Call{FeePayer: nodeFeePayer, Authority: nodeAuthority}, nodeIssuerArgs())
	require.NoError(t, err)
}

func TestNodeCommitSurvivesReopen(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, _ := newTestNode(t, db)

	require.False(t, node.Pending())
	issuer, err := node.CreateIssuer(context.Background(), passes.Call{FeePayer: nodeFeePayer, Authority: nodeAuthority}, nodeIssuerArgs())
	require.NoError(t, err)
	require.True(t, node.Pending())
	root, err := node.Commit()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), node.Height())
	assert.False(t, node.Pending())

	reopened, err := NewNode(db, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reopened.Height())
	assert.Equal(t, root, reopened.CommittedRoot())
	stored, err := reopened.Issuer(issuer.Address)
	require.NoError(t, err)
	assert.Equal(t, issuer.Authorities, stored.Authorities)
}

func TestNodeSetParamsValidates(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, _ := newTestNode(t, db)

	require.Error(t, node.SetParams(passes.Params{}))
	params := passes.DefaultParams()
	params.DefaultActivityDays = 7
	require.NoError(t, node.SetParams(params))
	assert.Equal(t, uint32(7), node.Params().DefaultActivityDays)
}

func TestNodePersistsAdminPauses(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, _ := newTestNode(t, db)

	require.NoError(t, node.SetModulePaused(passes.ModuleName, true))
	require.True(t, node.Pauses().IsPaused(passes.ModuleName))

	reopened, err := NewNode(db, "")
	require.NoError(t, err)
	assert.True(t, reopened.Pauses().IsPaused(passes.ModuleName))

	// Config may not silently resume a module an operator paused.
	require.NoError(t, reopened.SetPauses(nativecommon.NewPauseSet()))
	assert.True(t, reopened.Pauses().IsPaused(passes.ModuleName))

	require.NoError(t, reopened.SetModulePaused(passes.ModuleName, false))
	require.NoError(t, reopened.SetPauses(nativecommon.NewPauseSet(passes.ModuleName)))
	assert.False(t, reopened.Pauses().IsPaused(passes.ModuleName))
}
