package core

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"passmint/core/events"
	"passmint/core/genesis"
	"passmint/core/state"
	"passmint/core/types"
	"passmint/native/collection"
	nativecommon "passmint/native/common"
	"passmint/native/metadata"
	nativeparams "passmint/native/params"
	"passmint/native/passes"
	"passmint/observability"
	telemetry "passmint/observability/otel"
	"passmint/storage"
	"passmint/storage/trie"
)

var (
	headRootKey   = []byte("passmint/head/root")
	headHeightKey = []byte("passmint/head/height")
)

// Node owns the state trie and serialises every transition against it. Each
// transition runs on a copy of the trie which is adopted only when the
// operation succeeds, so a failed operation leaves no trace in state or in
// the emitted event stream.
type Node struct {
	db      storage.Database
	trie    *trie.Trie
	stateMu sync.Mutex
	height  uint64

	params  passes.Params
	rent    nativecommon.Rent
	pauses  *nativecommon.PauseSet
	toggles *nativeparams.Store
	emitter events.Emitter
	nowFn   func() int64
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewNode opens the committed head in db. When the database holds no head
// the genesis file is applied and committed at height zero; an empty
// genesisPath starts from the empty state.
func NewNode(db storage.Database, genesisPath string) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: database required")
	}
	n := &Node{
		db:      db,
		params:  passes.DefaultParams(),
		rent:    nativecommon.DefaultRent(),
		pauses:  nativecommon.NewPauseSet(),
		toggles: nativeparams.NewStore(db),
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		logger:  slog.Default(),
		tracer:  telemetry.Tracer(),
	}

	root, err := db.Get(headRootKey)
	switch {
	case err == nil:
		height, err := db.Get(headHeightKey)
		if err != nil {
			return nil, fmt.Errorf("node: load head height: %w", err)
		}
		if len(height) != 8 {
			return nil, fmt.Errorf("node: corrupt head height")
		}
		n.height = binary.BigEndian.Uint64(height)
		if n.trie, err = trie.NewTrie(db, root); err != nil {
			return nil, fmt.Errorf("node: open state at %x: %w", root, err)
		}
		if err := n.applyToggles(n.pauses); err != nil {
			return nil, err
		}
		return n, nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("node: load head root: %w", err)
	}

	if n.trie, err = trie.NewTrie(db, nil); err != nil {
		return nil, err
	}
	if genesisPath != "" {
		spec, err := genesis.LoadGenesisSpec(genesisPath)
		if err != nil {
			return nil, err
		}
		if err := genesis.Apply(spec, state.NewManager(n.trie)); err != nil {
			return nil, fmt.Errorf("node: apply genesis: %w", err)
		}
	}
	if _, err := n.commitLocked(0); err != nil {
		return nil, err
	}
	return n, nil
}

// SetEmitter replaces the subscriber receiving committed events.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	n.emitter = emitter
}

// SetParams validates and installs the passes module parameters.
func (n *Node) SetParams(p passes.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	n.stateMu.Lock()
	n.params = p
	n.stateMu.Unlock()
	return nil
}

func (n *Node) SetRent(r nativecommon.Rent) {
	n.stateMu.Lock()
	n.rent = r
	n.stateMu.Unlock()
}

func (n *Node) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	n.stateMu.Lock()
	n.logger = logger
	n.stateMu.Unlock()
}

// SetNowFunc overrides the clock. Intended for tests.
func (n *Node) SetNowFunc(now func() int64) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	n.nowFn = now
}

// SetPauses replaces the pause set, typically with one seeded from config.
// Toggles persisted through SetModulePaused are applied on top.
func (n *Node) SetPauses(p *nativecommon.PauseSet) error {
	if p == nil {
		return nil
	}
	if err := n.applyToggles(p); err != nil {
		return err
	}
	n.stateMu.Lock()
	n.pauses = p
	n.stateMu.Unlock()
	return nil
}

// SetModulePaused flips the pause toggle for module and persists it so the
// toggle survives a restart.
func (n *Node) SetModulePaused(module string, paused bool) error {
	if err := n.toggles.SetPause(module, paused); err != nil {
		return err
	}
	n.Pauses().Set(module, paused)
	return nil
}

func (n *Node) applyToggles(p *nativecommon.PauseSet) error {
	toggles, err := n.toggles.Pauses()
	if err != nil {
		return fmt.Errorf("node: load pauses: %w", err)
	}
	for module, paused := range toggles {
		p.Set(module, paused)
	}
	return nil
}

// Pauses exposes the pause set consulted by every transition.
func (n *Node) Pauses() *nativecommon.PauseSet {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.pauses
}

// Params returns the active passes parameters.
func (n *Node) Params() passes.Params {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.params
}

func (n *Node) Height() uint64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.height
}

// Root returns the working state root including uncommitted transitions.
func (n *Node) Root() common.Hash {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.trie.Hash()
}

// CommittedRoot returns the root persisted by the last commit.
func (n *Node) CommittedRoot() common.Hash {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.trie.Root()
}

// Pending reports whether transitions were applied since the last commit.
func (n *Node) Pending() bool {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.trie.Dirty()
}

// Commit flushes the working state to disk and advances the head.
func (n *Node) Commit() (common.Hash, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.commitLocked(n.height + 1)
}

func (n *Node) commitLocked(height uint64) (common.Hash, error) {
	root, err := n.trie.Commit(height)
	if err != nil {
		return common.Hash{}, fmt.Errorf("node: commit state: %w", err)
	}
	var encoded [8]byte
	binary.BigEndian.PutUint64(encoded[:], height)
	if err := n.db.Put(headRootKey, root.Bytes()); err != nil {
		return common.Hash{}, fmt.Errorf("node: persist head root: %w", err)
	}
	if err := n.db.Put(headHeightKey, encoded[:]); err != nil {
		return common.Hash{}, fmt.Errorf("node: persist head height: %w", err)
	}
	n.height = height
	observability.Transitions().RecordCommit(height)
	return root, nil
}

func (n *Node) newEngine(manager *state.Manager, emitter events.Emitter) *passes.Engine {
	engine := passes.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(n.nowFn)
	engine.SetParams(n.params)
	engine.SetRent(n.rent)
	engine.SetPauses(n.pauses)
	return engine
}

// execute runs fn as a single transition. The working trie is swapped in and
// the buffered events are published only when fn succeeds.
func (n *Node) execute(ctx context.Context, op string, fn func(*passes.Engine) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := n.tracer.Start(ctx, "passes."+op, trace.WithAttributes(attribute.String("passes.op", op)))
	defer span.End()

	start := time.Now()
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	var err error
	defer func() {
		observability.Transitions().Observe(op, err, time.Since(start))
	}()
	if err = ctx.Err(); err != nil {
		return err
	}

	working := n.trie.Copy()
	buffer := events.NewBuffer()
	engine := n.newEngine(state.NewManager(working), buffer)
	if err = fn(engine); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, observability.ErrorName(err))
		n.logger.Warn("transition rejected",
			slog.String("op", op),
			slog.String("code", observability.ErrorName(err)),
			slog.Any("error", err))
		return err
	}

	n.trie = working
	for _, evt := range buffer.Events() {
		observability.Events().RecordEvent(evt.EventType())
	}
	published := buffer.Flush(n.emitter)
	span.SetAttributes(attribute.Int("passes.events", published))
	n.logger.Debug("transition applied",
		slog.String("op", op),
		slog.String("root", working.Hash().Hex()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// view runs fn against the working state without adopting any change.
func (n *Node) view(fn func(*passes.Engine, *state.Manager) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	manager := state.NewManager(n.trie.Copy())
	return fn(n.newEngine(manager, events.NoopEmitter{}), manager)
}

func (n *Node) CreateIssuer(ctx context.Context, call passes.Call, args passes.CreateIssuerArgs) (*passes.Issuer, error) {
	var out *passes.Issuer
	err := n.execute(ctx, "create_issuer", func(engine *passes.Engine) error {
		issuer, err := engine.CreateIssuer(call, args)
		out = issuer
		return err
	})
	return out, err
}

func (n *Node) CreateIssuerWithCollection(ctx context.Context, call passes.Call, args passes.CreateIssuerArgs) (*passes.Issuer, error) {
	var out *passes.Issuer
	err := n.execute(ctx, "create_issuer_with_collection", func(engine *passes.Engine) error {
		issuer, err := engine.CreateIssuerWithCollection(call, args)
		out = issuer
		return err
	})
	return out, err
}

func (n *Node) AddAuthority(ctx context.Context, call passes.Call, issuer, principal common.Address) error {
	return n.execute(ctx, "add_authority", func(engine *passes.Engine) error {
		return engine.AddAuthority(call, issuer, principal)
	})
}

func (n *Node) RemoveAuthority(ctx context.Context, call passes.Call, issuer, principal common.Address) error {
	return n.execute(ctx, "remove_authority", func(engine *passes.Engine) error {
		return engine.RemoveAuthority(call, issuer, principal)
	})
}

func (n *Node) RemoveIssuer(ctx context.Context, call passes.Call, issuer common.Address) error {
	return n.execute(ctx, "remove_issuer", func(engine *passes.Engine) error {
		return engine.RemoveIssuer(call, issuer)
	})
}

func (n *Node) PreparePayment(ctx context.Context, call passes.Call, args passes.PreparePaymentArgs) (*passes.Receipt, error) {
	var out *passes.Receipt
	err := n.execute(ctx, "prepare_payment", func(engine *passes.Engine) error {
		receipt, err := engine.PreparePayment(call, args)
		out = receipt
		return err
	})
	return out, err
}

func (n *Node) MintMembership(ctx context.Context, call passes.Call, args passes.MintMembershipArgs) (*collection.Member, error) {
	var out *collection.Member
	err := n.execute(ctx, "mint_membership", func(engine *passes.Engine) error {
		member, err := engine.MintMembership(call, args)
		out = member
		return err
	})
	return out, err
}

func (n *Node) RetireMembership(ctx context.Context, call passes.Call, issuer, memberAsset common.Address) error {
	return n.execute(ctx, "retire_membership", func(engine *passes.Engine) error {
		return engine.RetireMembership(call, issuer, memberAsset)
	})
}

func (n *Node) UpdateMemberMetadata(ctx context.Context, call passes.Call, args passes.UpdateMemberMetadataArgs) error {
	return n.execute(ctx, "update_member_metadata", func(engine *passes.Engine) error {
		return engine.UpdateMemberMetadata(call, args)
	})
}

func (n *Node) CreateActivity(ctx context.Context, call passes.Call, args passes.CreateActivityArgs) (*passes.ActivityLedger, error) {
	var out *passes.ActivityLedger
	err := n.execute(ctx, "create_activity", func(engine *passes.Engine) error {
		ledger, err := engine.CreateActivity(call, args)
		out = ledger
		return err
	})
	return out, err
}

func (n *Node) AppendActivityEntry(ctx context.Context, call passes.Call, args passes.AppendActivityEntryArgs) (*passes.ActivityLedger, error) {
	var out *passes.ActivityLedger
	err := n.execute(ctx, "append_activity_entry", func(engine *passes.Engine) error {
		ledger, err := engine.AppendActivityEntry(call, args)
		out = ledger
		return err
	})
	return out, err
}

func (n *Node) Issuer(addr common.Address) (*passes.Issuer, error) {
	var out *passes.Issuer
	err := n.view(func(engine *passes.Engine, _ *state.Manager) (err error) {
		out, err = engine.Issuer(addr)
		return err
	})
	return out, err
}

func (n *Node) Receipt(addr common.Address) (*passes.Receipt, error) {
	var out *passes.Receipt
	err := n.view(func(engine *passes.Engine, _ *state.Manager) (err error) {
		out, err = engine.Receipt(addr)
		return err
	})
	return out, err
}

func (n *Node) Activity(addr common.Address) (*passes.ActivityLedger, error) {
	var out *passes.ActivityLedger
	err := n.view(func(engine *passes.Engine, _ *state.Manager) (err error) {
		out, err = engine.Activity(addr)
		return err
	})
	return out, err
}

func (n *Node) Collection(addr common.Address) (*collection.Collection, error) {
	var out *collection.Collection
	err := n.view(func(engine *passes.Engine, _ *state.Manager) (err error) {
		out, err = engine.Collection(addr)
		return err
	})
	return out, err
}

func (n *Node) Member(memberAsset common.Address) (*collection.Member, error) {
	var out *collection.Member
	err := n.view(func(engine *passes.Engine, _ *state.Manager) (err error) {
		out, err = engine.Member(memberAsset)
		return err
	})
	return out, err
}

func (n *Node) Metadata(asset common.Address) ([]metadata.Field, error) {
	var out []metadata.Field
	err := n.view(func(engine *passes.Engine, _ *state.Manager) (err error) {
		out, err = engine.Metadata(asset)
		return err
	})
	return out, err
}

func (n *Node) HoldingBalance(owner, asset common.Address) (uint64, error) {
	var out uint64
	err := n.view(func(engine *passes.Engine, _ *state.Manager) (err error) {
		out, err = engine.HoldingBalance(owner, asset)
		return err
	})
	return out, err
}

// Account returns the account envelope at addr, or nil when absent.
func (n *Node) Account(addr common.Address) (*types.Account, error) {
	var out *types.Account
	err := n.view(func(_ *passes.Engine, manager *state.Manager) (err error) {
		out, err = manager.Account(addr)
		return err
	})
	return out, err
}

func (n *Node) NativeBalance(addr common.Address) (uint64, error) {
	var out uint64
	err := n.view(func(_ *passes.Engine, manager *state.Manager) (err error) {
		out, err = manager.NativeBalance(addr)
		return err
	})
	return out, err
}

// IssuerAddress derives the issuer address under the active namespace.
func (n *Node) IssuerAddress(asset common.Address, name string) common.Address {
	return passes.IssuerAddress(n.Params().Namespace, asset, name)
}

// ReceiptAddress derives the receipt address under the active namespace.
func (n *Node) ReceiptAddress(sender, receiver, asset common.Address) common.Address {
	return passes.ReceiptAddress(n.Params().Namespace, sender, receiver, asset)
}

// ActivityAddress derives the ledger address under the active namespace.
func (n *Node) ActivityAddress(memberAsset common.Address, label string) common.Address {
	return passes.ActivityAddress(n.Params().Namespace, memberAsset, label)
}
