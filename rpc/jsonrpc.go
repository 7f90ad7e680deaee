package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	nativecommon "passmint/native/common"
	"passmint/native/passes"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeStateMismatch  = -32002
	codeInsufficient   = -32003
	codeDuplicate      = -32010
	codeRateLimited    = -32020
	codeUnavailable    = -32030
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorData carries the named failure behind a transition error.
type ErrorData struct {
	Code  uint32 `json:"code"`
	Name  string `json:"name"`
	Class string `json:"class"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

// writeEngineError maps a named failure onto an HTTP status and JSON-RPC code
// by its class. Unnamed errors are reported as server errors.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	named, ok := nativecommon.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal error", err.Error())
		return
	}
	data := ErrorData{Code: named.Code, Name: named.Name, Class: named.Class.String()}
	status, code := http.StatusInternalServerError, codeServerError
	switch named.Class {
	case nativecommon.ClassAuthorization:
		status, code = http.StatusForbidden, codeUnauthorized
		if errors.Is(err, nativecommon.ErrModulePaused) {
			status, code = http.StatusServiceUnavailable, codeUnavailable
		}
	case nativecommon.ClassValidation:
		status, code = http.StatusBadRequest, codeInvalidParams
	case nativecommon.ClassState:
		status, code = http.StatusConflict, codeStateMismatch
		if isNotFound(err) {
			status = http.StatusNotFound
		}
	case nativecommon.ClassResource:
		status, code = http.StatusPaymentRequired, codeInsufficient
	}
	writeError(w, status, id, code, named.Msg, data)
}

func isNotFound(err error) bool {
	return errors.Is(err, passes.ErrIssuerNotFound) ||
		errors.Is(err, passes.ErrReceiptNotFound) ||
		errors.Is(err, passes.ErrActivityNotFound) ||
		errors.Is(err, nativecommon.ErrAccountNotFound)
}
