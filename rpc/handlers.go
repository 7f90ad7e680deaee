package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"passmint/native/collection"
	nativecommon "passmint/native/common"
	"passmint/native/passes"
	"passmint/observability"
	"passmint/services/indexer"
)

type txFunc func(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error)
type queryFunc func(ctx context.Context, raw json.RawMessage) (interface{}, error)

type method struct {
	tx    txFunc
	query queryFunc
}

// paramError marks malformed parameters so they are reported as invalid
// params rather than engine failures.
type paramError struct{ err error }

func (e paramError) Error() string { return e.err.Error() }
func (e paramError) Unwrap() error { return e.err }

func decode(raw json.RawMessage, out interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return paramError{errors.New("parameter object required")}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return paramError{err}
	}
	return nil
}

// invalid passes named engine failures through and marks everything else as
// a parameter error.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	if _, named := nativecommon.AsError(err); named {
		return err
	}
	return paramError{err}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	methodName := "unknown"
	defer func() {
		observability.ModuleMetrics().Observe("passes", methodName, recorder.status, time.Since(start))
	}()

	reader := http.MaxBytesReader(recorder, r.Body, maxRequestBytes)
	defer func() { _ = reader.Close() }()
	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(recorder, status, nil, codeInvalidRequest, message, nil)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(recorder, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}
	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(recorder, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(recorder, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(recorder, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	methodName = req.Method
	if len(req.Params) > 1 {
		writeError(recorder, http.StatusBadRequest, req.ID, codeInvalidParams, "expected a single parameter object", nil)
		return
	}
	var raw json.RawMessage
	if len(req.Params) == 1 {
		raw = req.Params[0]
	}

	var result interface{}
	if m.tx != nil {
		result, err = s.dispatchSigned(r.Context(), req.Method, raw, m.tx)
	} else {
		result, err = m.query(r.Context(), raw)
	}
	if err != nil {
		s.writeFailure(recorder, r, req, err)
		return
	}
	writeResult(recorder, req.ID, result)
}

func (s *Server) dispatchSigned(ctx context.Context, name string, raw json.RawMessage, fn txFunc) (interface{}, error) {
	var env Envelope
	if err := decode(raw, &env); err != nil {
		return nil, err
	}
	if env.Method != name {
		return nil, paramError{fmt.Errorf("envelope signed for %q", env.Method)}
	}
	now := s.nowFn()
	call, err := env.verify(now)
	if err != nil {
		return nil, authError{err}
	}
	if !s.nonces.remember(env.Nonce, env.Expiry, now) {
		return nil, errDuplicateNonce
	}
	return fn(ctx, call, env.Params)
}

type authError struct{ err error }

func (e authError) Error() string { return e.err.Error() }
func (e authError) Unwrap() error { return e.err }

var (
	errDuplicateNonce   = errors.New("envelope nonce already used")
	errIndexUnavailable = errors.New("event index not configured")
)

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, req *RPCRequest, err error) {
	var perr paramError
	var aerr authError
	switch {
	case errors.As(err, &perr):
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", perr.Error())
	case errors.As(err, &aerr):
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "invalid envelope", aerr.Error())
	case errors.Is(err, errDuplicateNonce):
		writeError(w, http.StatusConflict, req.ID, codeDuplicate, err.Error(), nil)
	case errors.Is(err, errIndexUnavailable):
		writeError(w, http.StatusServiceUnavailable, req.ID, codeUnavailable, err.Error(), nil)
	default:
		if _, named := nativecommon.AsError(err); !named {
			s.logger.Error("rpc handler failed",
				slog.String("requestid", RequestID(r.Context())),
				slog.String("method", req.Method),
				slog.Any("error", err))
		}
		writeEngineError(w, req.ID, err)
	}
}

func (s *Server) registerMethods() map[string]method {
	return map[string]method{
		"passes_createIssuer":               {tx: s.createIssuer(passes.ModeStandalone)},
		"passes_createIssuerWithCollection": {tx: s.createIssuer(passes.ModeCollection)},
		"passes_addAuthority":               {tx: s.changeAuthority(true)},
		"passes_removeAuthority":            {tx: s.changeAuthority(false)},
		"passes_removeIssuer":               {tx: s.removeIssuer},
		"passes_preparePayment":             {tx: s.preparePayment},
		"passes_mintMembership":             {tx: s.mintMembership},
		"passes_retireMembership":           {tx: s.retireMembership},
		"passes_updateMemberMetadata":       {tx: s.updateMemberMetadata},
		"passes_createActivity":             {tx: s.createActivity},
		"passes_appendActivityEntry":        {tx: s.appendActivityEntry},

		"passes_getIssuer":     {query: s.getIssuer},
		"passes_getReceipt":    {query: s.getReceipt},
		"passes_getActivity":   {query: s.getActivity},
		"passes_getCollection": {query: s.getCollection},
		"passes_getMember":     {query: s.getMember},
		"passes_getMetadata":   {query: s.getMetadata},
		"passes_getBalance":    {query: s.getBalance},
		"passes_deriveAddress": {query: s.deriveAddress},
		"passes_listEvents":    {query: s.listEvents},
		"node_status":          {query: s.status},
	}
}

func (s *Server) createIssuer(mode passes.IssuerCreationMode) txFunc {
	return func(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
		var params CreateIssuerParams
		if err := decode(raw, &params); err != nil {
			return nil, err
		}
		args, err := params.toArgs()
		if err != nil {
			return nil, invalid(err)
		}
		var issuer *passes.Issuer
		if mode == passes.ModeCollection {
			issuer, err = s.node.CreateIssuerWithCollection(ctx, call, args)
		} else {
			issuer, err = s.node.CreateIssuer(ctx, call, args)
		}
		if err != nil {
			return nil, err
		}
		return issuerResult(issuer), nil
	}
}

func (s *Server) changeAuthority(add bool) txFunc {
	return func(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
		var params AuthorityParams
		if err := decode(raw, &params); err != nil {
			return nil, err
		}
		issuer, err := parseAddress("issuer", params.Issuer)
		if err != nil {
			return nil, invalid(err)
		}
		principal, err := parseAddress("principal", params.Principal)
		if err != nil {
			return nil, invalid(err)
		}
		if add {
			err = s.node.AddAuthority(ctx, call, issuer, principal)
		} else {
			err = s.node.RemoveAuthority(ctx, call, issuer, principal)
		}
		if err != nil {
			return nil, err
		}
		updated, err := s.node.Issuer(issuer)
		if err != nil {
			return nil, err
		}
		return issuerResult(updated), nil
	}
}

func (s *Server) removeIssuer(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
	var params IssuerParams
	if err := decode(raw, &params); err != nil {
		return nil, err
	}
	issuer, err := parseAddress("issuer", params.Issuer)
	if err != nil {
		return nil, invalid(err)
	}
	if err := s.node.RemoveIssuer(ctx, call, issuer); err != nil {
		return nil, err
	}
	return map[string]string{"removed": formatAddress(issuer)}, nil
}

func (s *Server) preparePayment(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
	var params PreparePaymentParams
	if err := decode(raw, &params); err != nil {
		return nil, err
	}
	args, err := params.toArgs()
	if err != nil {
		return nil, invalid(err)
	}
	receipt, err := s.node.PreparePayment(ctx, call, args)
	if err != nil {
		return nil, err
	}
	return receiptResult(receipt), nil
}

func (s *Server) mintMembership(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
	var params MintMembershipParams
	if err := decode(raw, &params); err != nil {
		return nil, err
	}
	args, err := params.toArgs()
	if err != nil {
		return nil, invalid(err)
	}
	member, err := s.node.MintMembership(ctx, call, args)
	if err != nil {
		return nil, err
	}
	fields, err := s.node.Metadata(member.Asset)
	if err != nil {
		return nil, err
	}
	return memberResult(member, fields), nil
}

func (s *Server) retireMembership(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
	var params MemberParams
	if err := decode(raw, &params); err != nil {
		return nil, err
	}
	issuer, memberAsset, err := params.addresses()
	if err != nil {
		return nil, invalid(err)
	}
	if err := s.node.RetireMembership(ctx, call, issuer, memberAsset); err != nil {
		return nil, err
	}
	return map[string]string{"retired": formatAddress(memberAsset)}, nil
}

func (s *Server) updateMemberMetadata(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
	var params UpdateMemberMetadataParams
	if err := decode(raw, &params); err != nil {
		return nil, err
	}
	args, err := params.toArgs()
	if err != nil {
		return nil, invalid(err)
	}
	if err := s.node.UpdateMemberMetadata(ctx, call, args); err != nil {
		return nil, err
	}
	return s.memberView(args.MemberAsset)
}

func (s *Server) createActivity(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
	var params CreateActivityParams
	if err := decode(raw, &params); err != nil {
		return nil, err
	}
	args, err := params.toArgs()
	if err != nil {
		return nil, invalid(err)
	}
	ledger, err := s.node.CreateActivity(ctx, call, args)
	if err != nil {
		return nil, err
	}
	return activityResult(ledger), nil
}

func (s *Server) appendActivityEntry(ctx context.Context, call passes.Call, raw json.RawMessage) (interface{}, error) {
	var params AppendActivityEntryParams
	if err := decode(raw, &params); err != nil {
		return nil, err
	}
	args, err := params.toArgs()
	if err != nil {
		return nil, invalid(err)
	}
	ledger, err := s.node.AppendActivityEntry(ctx, call, args)
	if err != nil {
		return nil, err
	}
	return activityResult(ledger), nil
}

type addressQuery struct {
	Address string `json:"address"`
}

func (s *Server) lookup(raw json.RawMessage) (common.Address, error) {
	var q addressQuery
	if err := decode(raw, &q); err != nil {
		return common.Address{}, err
	}
	addr, err := parseAddress("address", q.Address)
	if err != nil {
		return common.Address{}, invalid(err)
	}
	return addr, nil
}

func (s *Server) getIssuer(_ context.Context, raw json.RawMessage) (interface{}, error) {
	addr, err := s.lookup(raw)
	if err != nil {
		return nil, err
	}
	issuer, err := s.node.Issuer(addr)
	if err != nil {
		return nil, err
	}
	return issuerResult(issuer), nil
}

func (s *Server) getReceipt(_ context.Context, raw json.RawMessage) (interface{}, error) {
	addr, err := s.lookup(raw)
	if err != nil {
		return nil, err
	}
	receipt, err := s.node.Receipt(addr)
	if err != nil {
		return nil, err
	}
	return receiptResult(receipt), nil
}

func (s *Server) getActivity(_ context.Context, raw json.RawMessage) (interface{}, error) {
	addr, err := s.lookup(raw)
	if err != nil {
		return nil, err
	}
	ledger, err := s.node.Activity(addr)
	if err != nil {
		return nil, err
	}
	return activityResult(ledger), nil
}

func (s *Server) getCollection(_ context.Context, raw json.RawMessage) (interface{}, error) {
	addr, err := s.lookup(raw)
	if err != nil {
		return nil, err
	}
	group, err := s.node.Collection(addr)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, passes.ErrInvalidCollection
	}
	return collectionResult(group), nil
}

func (s *Server) memberView(memberAsset common.Address) (interface{}, error) {
	member, err := s.node.Member(memberAsset)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, passes.ErrInvalidMember
	}
	fields, err := s.node.Metadata(memberAsset)
	if err != nil {
		return nil, err
	}
	return memberResult(member, fields), nil
}

func (s *Server) getMember(_ context.Context, raw json.RawMessage) (interface{}, error) {
	addr, err := s.lookup(raw)
	if err != nil {
		return nil, err
	}
	return s.memberView(addr)
}

func (s *Server) getMetadata(_ context.Context, raw json.RawMessage) (interface{}, error) {
	addr, err := s.lookup(raw)
	if err != nil {
		return nil, err
	}
	fields, err := s.node.Metadata(addr)
	if err != nil {
		return nil, err
	}
	out := make([]MetadataPairJSON, 0, len(fields))
	for _, field := range fields {
		out = append(out, MetadataPairJSON{Key: field.Key, Value: field.Value})
	}
	return out, nil
}

type balanceQuery struct {
	Owner string `json:"owner"`
	Asset string `json:"asset,omitempty"`
}

type BalanceResult struct {
	Owner   string `json:"owner"`
	Native  uint64 `json:"native"`
	Asset   string `json:"asset,omitempty"`
	Holding uint64 `json:"holding"`
}

func (s *Server) getBalance(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var q balanceQuery
	if err := decode(raw, &q); err != nil {
		return nil, err
	}
	owner, err := parseAddress("owner", q.Owner)
	if err != nil {
		return nil, invalid(err)
	}
	native, err := s.node.NativeBalance(owner)
	if err != nil {
		return nil, err
	}
	out := BalanceResult{Owner: formatAddress(owner), Native: native}
	if strings.TrimSpace(q.Asset) == "" {
		return out, nil
	}
	asset, err := parseAddress("asset", q.Asset)
	if err != nil {
		return nil, invalid(err)
	}
	if out.Holding, err = s.node.HoldingBalance(owner, asset); err != nil {
		return nil, err
	}
	out.Asset = formatAddress(asset)
	return out, nil
}

type deriveQuery struct {
	Kind        string `json:"kind"`
	Asset       string `json:"asset,omitempty"`
	Name        string `json:"name,omitempty"`
	Sender      string `json:"sender,omitempty"`
	Receiver    string `json:"receiver,omitempty"`
	MemberAsset string `json:"memberAsset,omitempty"`
	Label       string `json:"label,omitempty"`
	Community   string `json:"community,omitempty"`
}

func (s *Server) deriveAddress(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var q deriveQuery
	if err := decode(raw, &q); err != nil {
		return nil, err
	}
	namespace := s.node.Params().Namespace
	var addr common.Address
	switch strings.ToLower(q.Kind) {
	case "issuer":
		asset, err := parseAddress("asset", q.Asset)
		if err != nil {
			return nil, invalid(err)
		}
		addr = passes.IssuerAddress(namespace, asset, q.Name)
	case "receipt":
		sender, err := parseAddress("sender", q.Sender)
		if err != nil {
			return nil, invalid(err)
		}
		receiver, err := parseAddress("receiver", q.Receiver)
		if err != nil {
			return nil, invalid(err)
		}
		asset, err := parseAddress("asset", q.Asset)
		if err != nil {
			return nil, invalid(err)
		}
		addr = passes.ReceiptAddress(namespace, sender, receiver, asset)
	case "activity":
		memberAsset, err := parseAddress("memberAsset", q.MemberAsset)
		if err != nil {
			return nil, invalid(err)
		}
		addr = passes.ActivityAddress(namespace, memberAsset, q.Label)
	case "community":
		addr = passes.CommunityID(namespace, q.Community)
	case "collection":
		asset, err := parseAddress("asset", q.Asset)
		if err != nil {
			return nil, invalid(err)
		}
		addr = collection.Address(asset)
	default:
		return nil, paramError{fmt.Errorf("unknown address kind %q", q.Kind)}
	}
	return map[string]string{"address": formatAddress(addr), "hex": addr.Hex()}, nil
}

type listEventsQuery struct {
	Type  string `json:"type,omitempty"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	After uint64 `json:"after,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type EventResult struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Digest     string            `json:"digest"`
	Attributes map[string]string `json:"attributes"`
	IndexedAt  time.Time         `json:"indexedAt"`
}

func (s *Server) listEvents(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	if s.index == nil {
		return nil, errIndexUnavailable
	}
	var q listEventsQuery
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := decode(raw, &q); err != nil {
			return nil, err
		}
	}
	rows, err := s.index.List(ctx, indexer.Filter{Type: q.Type, Key: q.Key, Value: q.Value, AfterSeq: q.After, Limit: q.Limit})
	if err != nil {
		return nil, err
	}
	out := make([]EventResult, 0, len(rows))
	for i := range rows {
		out = append(out, EventResult{
			Sequence:   rows[i].Sequence,
			Type:       rows[i].Type,
			Digest:     rows[i].Digest,
			Attributes: rows[i].Map(),
			IndexedAt:  rows[i].CreatedAt,
		})
	}
	return out, nil
}

type StatusResult struct {
	Height        uint64 `json:"height"`
	Root          string `json:"root"`
	CommittedRoot string `json:"committedRoot"`
	Namespace     string `json:"namespace"`
	Paused        bool   `json:"paused"`
}

func (s *Server) status(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return StatusResult{
		Height:        s.node.Height(),
		Root:          s.node.Root().Hex(),
		CommittedRoot: s.node.CommittedRoot().Hex(),
		Namespace:     s.node.Params().Namespace,
		Paused:        s.node.Pauses().IsPaused(passes.ModuleName),
	}, nil
}

func (s *Server) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module := chi.URLParam(r, "module")
		if err := s.node.SetModulePaused(module, paused); err != nil {
			writeError(w, http.StatusBadRequest, nil, codeInvalidParams, err.Error(), nil)
			return
		}
		s.logger.Warn("module pause changed",
			slog.String("requestid", RequestID(r.Context())),
			slog.String("module", module),
			slog.Bool("paused", paused))
		writeResult(w, nil, map[string]interface{}{"module": module, "paused": s.node.Pauses().IsPaused(module)})
	}
}

func (s *Server) handlePauseStatus(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	writeResult(w, nil, map[string]interface{}{"module": module, "paused": s.node.Pauses().IsPaused(module)})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	root, err := s.node.Commit()
	if err != nil {
		s.logger.Error("commit failed", slog.String("requestid", RequestID(r.Context())), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, nil, codeServerError, "commit failed", err.Error())
		return
	}
	writeResult(w, nil, map[string]interface{}{"height": s.node.Height(), "root": root.Hex()})
}
