package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"passmint/crypto"
	"passmint/native/passes"
)

// Envelope is a signed transition request. Authority and fee payer sign the
// same bytes; the fee payer signature may be omitted when the authority
// funds the call itself.
type Envelope struct {
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params"`
	Nonce     string          `json:"nonce"`
	Expiry    int64           `json:"expiry"`
	Authority Signature       `json:"authority"`
	FeePayer  *Signature      `json:"feePayer,omitempty"`
}

// Signature binds a declared principal to a hex encoded recoverable
// signature.
type Signature struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

type signingPayload struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Nonce  string          `json:"nonce"`
	Expiry int64           `json:"expiry"`
}

// SigningBytes returns the canonical bytes both signers commit to. Params are
// compacted so whitespace does not change the digest.
func SigningBytes(method string, params json.RawMessage, nonce string, expiry int64) ([]byte, error) {
	var compact bytes.Buffer
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	if err := json.Compact(&compact, params); err != nil {
		return nil, fmt.Errorf("envelope: params: %w", err)
	}
	return json.Marshal(signingPayload{
		Method: method,
		Params: compact.Bytes(),
		Nonce:  nonce,
		Expiry: expiry,
	})
}

// NewEnvelope prepares an unsigned envelope with a fresh nonce.
func NewEnvelope(method string, params interface{}, ttl time.Duration) (*Envelope, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Method: method,
		Params: raw,
		Nonce:  uuid.NewString(),
		Expiry: time.Now().Add(ttl).Unix(),
	}, nil
}

// Sign attaches the authority signature, or the fee payer signature when
// asFeePayer is set.
func (e *Envelope) Sign(key *crypto.PrivateKey, asFeePayer bool) error {
	payload, err := SigningBytes(e.Method, e.Params, e.Nonce, e.Expiry)
	if err != nil {
		return err
	}
	sig, err := key.Sign(payload)
	if err != nil {
		return err
	}
	signed := Signature{Address: crypto.FormatAddress(key.Address()), Signature: hex.EncodeToString(sig)}
	if asFeePayer {
		e.FeePayer = &signed
	} else {
		e.Authority = signed
	}
	return nil
}

var (
	errEnvelopeExpired  = errors.New("envelope expired")
	errEnvelopeNonce    = errors.New("envelope nonce required")
	errSignerMismatch   = errors.New("signature does not match declared address")
	errMissingSignature = errors.New("authority signature required")
	errEnvelopeHorizon  = errors.New("envelope expiry too far in the future")
	errEnvelopeNoExpiry = errors.New("envelope expiry required")
)

// maxEnvelopeHorizon bounds how long an accepted nonce must be remembered.
const maxEnvelopeHorizon = time.Hour

// verify recovers both signers and returns the call they authorise.
func (e *Envelope) verify(now time.Time) (passes.Call, error) {
	if strings.TrimSpace(e.Nonce) == "" {
		return passes.Call{}, errEnvelopeNonce
	}
	if e.Expiry <= 0 {
		return passes.Call{}, errEnvelopeNoExpiry
	}
	if now.Unix() > e.Expiry {
		return passes.Call{}, errEnvelopeExpired
	}
	if e.Expiry > now.Add(maxEnvelopeHorizon).Unix() {
		return passes.Call{}, errEnvelopeHorizon
	}
	if e.Authority.Signature == "" {
		return passes.Call{}, errMissingSignature
	}
	payload, err := SigningBytes(e.Method, e.Params, e.Nonce, e.Expiry)
	if err != nil {
		return passes.Call{}, err
	}
	authority, err := recoverSignature(payload, e.Authority)
	if err != nil {
		return passes.Call{}, fmt.Errorf("authority: %w", err)
	}
	call := passes.Call{Authority: authority}
	if e.FeePayer != nil {
		payer, err := recoverSignature(payload, *e.FeePayer)
		if err != nil {
			return passes.Call{}, fmt.Errorf("fee payer: %w", err)
		}
		call.FeePayer = payer
	}
	return call, nil
}

func recoverSignature(payload []byte, sig Signature) (common.Address, error) {
	declared, err := crypto.ParseAddress(sig.Address)
	if err != nil {
		return common.Address{}, err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(sig.Signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	signer, err := crypto.RecoverSigner(payload, raw)
	if err != nil {
		return common.Address{}, err
	}
	if signer != declared {
		return common.Address{}, errSignerMismatch
	}
	return signer, nil
}

// nonceCache rejects envelopes whose nonce was already accepted. Entries are
// kept until their envelope expires, and never for less than ttl.
type nonceCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
}

func newNonceCache(ttl time.Duration) *nonceCache {
	return &nonceCache{ttl: ttl, seen: make(map[string]time.Time)}
}

func (c *nonceCache) remember(nonce string, expiry int64, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, until := range c.seen {
		if now.After(until) {
			delete(c.seen, key)
		}
	}
	if _, exists := c.seen[nonce]; exists {
		return false
	}
	until := now.Add(c.ttl)
	if exp := time.Unix(expiry, 0); exp.After(until) {
		until = exp
	}
	c.seen[nonce] = until
	return true
}
