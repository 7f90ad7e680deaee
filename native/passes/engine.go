// Package passes implements issuers, payment receipts and activity ledgers.
// Every operation is one state transition over the state it is bound to; the
// caller provides atomicity by discarding the state on error.
package passes

import (
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"passmint/core/events"
	"passmint/core/types"
	"passmint/crypto"
	"passmint/native/bank"
	"passmint/native/collection"
	nativecommon "passmint/native/common"
	"passmint/native/metadata"
	"passmint/observability/metrics"
)

type engineState interface {
	nativecommon.AccountStore
	bank.State
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Engine executes passes transitions against a bound state.
type Engine struct {
	state       engineState
	collections *collection.Registry
	metadata    *metadata.Store
	emitter     events.Emitter
	nowFn       func() int64
	params      Params
	rent        nativecommon.Rent
	pauses      nativecommon.PauseView
	telemetry   *metrics.PassesMetrics
}

// NewEngine returns an engine with default params and rent and a no-op
// emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		params:    DefaultParams(),
		rent:      nativecommon.DefaultRent(),
		telemetry: metrics.Passes(),
	}
}

// SetState binds the engine and its collaborators to st.
func (e *Engine) SetState(st engineState) {
	e.state = st
	e.collections = collection.NewRegistry(st)
	e.metadata = metadata.NewStore(st)
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock. Passing nil restores wall time.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) SetParams(p Params) { e.params = p }

func (e *Engine) SetRent(r nativecommon.Rent) { e.rent = r }

func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// Params returns the configuration the engine derives addresses with.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil && evt != nil {
		e.emitter.Emit(evt)
	}
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	return nativecommon.Guard(e.pauses, ModuleName)
}

// --- addressing ---

// IssuerAddress derives the issuer bound to asset under name.
func IssuerAddress(namespace string, asset common.Address, name string) common.Address {
	return crypto.Derive(namespace, []byte("issuer"), asset.Bytes(), []byte(name))
}

// ReceiptAddress derives the receipt for the (sender, receiver, asset) triple.
func ReceiptAddress(namespace string, sender, receiver, asset common.Address) common.Address {
	return crypto.Derive(namespace, []byte("receipt"), sender.Bytes(), receiver.Bytes(), asset.Bytes())
}

// ActivityAddress derives the ledger for a member asset and label.
func ActivityAddress(namespace string, memberAsset common.Address, label string) common.Address {
	return crypto.Derive(namespace, []byte("activity"), memberAsset.Bytes(), []byte(label))
}

// CommunityID derives the identity of a named community.
func CommunityID(namespace, community string) common.Address {
	return crypto.Derive(namespace, []byte("community"), []byte(community))
}

// --- record storage ---

func (e *Engine) loadRecord(addr common.Address, kind string, out interface{}) (*types.Account, error) {
	account, err := e.state.Account(addr)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Kind != kind {
		return nil, nil
	}
	if account.Owner != e.params.Namespace {
		return nil, nativecommon.ErrInvalidAccountOwner
	}
	if err := rlp.DecodeBytes(account.Data, out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, addr.Hex(), err)
	}
	return account, nil
}

// writeRecord encodes record into account. The encoding must fit the
// allocated space.
func (e *Engine) writeRecord(addr common.Address, account *types.Account, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	if uint64(len(encoded)) > account.Space {
		return fmt.Errorf("%w: %d bytes in %d", nativecommon.ErrRecordOverflow, len(encoded), account.Space)
	}
	account.Data = encoded
	return e.state.PutAccount(addr, account)
}

func (e *Engine) createRecord(addr common.Address, kind string, space uint64, payer common.Address, record interface{}) (*types.Account, error) {
	account, err := nativecommon.CreateAccount(e.state, e.rent, addr, e.params.Namespace, space, payer)
	if err != nil {
		return nil, err
	}
	account.Kind = kind
	if err := e.writeRecord(addr, account, record); err != nil {
		return nil, err
	}
	e.telemetry.ObserveRecordCreated(kind)
	return account, nil
}

func (e *Engine) closeRecord(addr common.Address, kind string, beneficiary common.Address) (uint64, error) {
	refunded, err := nativecommon.CloseAccount(e.state, addr, e.params.Namespace, beneficiary)
	if err != nil {
		return 0, err
	}
	e.telemetry.ObserveRecordClosed(kind)
	return refunded, nil
}

// grew records the space added by a reallocation.
func (e *Engine) grew(kind string, before, after uint64) {
	if after > before {
		e.telemetry.ObserveRealloc(kind, after-before)
	}
}

func (e *Engine) loadIssuer(addr common.Address) (*Issuer, *types.Account, error) {
	issuer := new(Issuer)
	account, err := e.loadRecord(addr, kindIssuer, issuer)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrIssuerNotFound, addr.Hex())
	}
	issuer.Address = addr
	return issuer, account, nil
}

func (e *Engine) loadReceipt(addr common.Address) (*Receipt, error) {
	receipt := new(Receipt)
	account, err := e.loadRecord(addr, kindReceipt, receipt)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, addr.Hex())
	}
	receipt.Address = addr
	return receipt, nil
}

func (e *Engine) loadActivity(addr common.Address) (*ActivityLedger, *types.Account, error) {
	ledger := new(ActivityLedger)
	account, err := e.loadRecord(addr, kindActivity, ledger)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrActivityNotFound, addr.Hex())
	}
	ledger.Address = addr
	return ledger, account, nil
}

// --- shared checks ---

// authorize enforces the issuer's fee payer binding, authority membership
// and the rule that a principal never sponsors its own authority.
func authorize(call Call, issuer *Issuer) error {
	if issuer.FeePayer != call.FeePayer {
		return fmt.Errorf("%w: fee payer %s is not bound to the issuer", ErrUnauthorized, call.FeePayer.Hex())
	}
	if !issuer.Authorities.Contains(call.Authority) {
		return fmt.Errorf("%w: %s is not an authority", ErrUnauthorized, call.Authority.Hex())
	}
	if call.FeePayer == call.Authority {
		return ErrInvalidFeePayer
	}
	return nil
}

// expiry returns now + days*86400, failing on overflow.
func expiry(now int64, days uint8) (int64, error) {
	delta := int64(days) * SecondsPerDay
	if now > math.MaxInt64-delta {
		return 0, ErrExpiryOverflow
	}
	return now + delta, nil
}

func (e *Engine) assetDecimals(asset common.Address) (uint8, error) {
	def, err := e.state.Asset(asset)
	if err != nil {
		return 0, err
	}
	if def == nil {
		return 0, fmt.Errorf("%w: %s is not registered", ErrInvalidAsset, asset.Hex())
	}
	return def.Decimals, nil
}
