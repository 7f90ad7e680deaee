package common

import (
	"errors"
	"fmt"
)

// Class groups failures by how a caller should react to them.
type Class uint8

const (
	ClassUnknown Class = iota
	// ClassAuthorization covers callers outside the authority set, fee payers
	// acting as their own authority and wrong signers.
	ClassAuthorization
	// ClassValidation covers malformed input; retrying with fixed input is safe.
	ClassValidation
	// ClassState covers mismatches against stored records.
	ClassState
	// ClassResource covers insufficient funds to pay for storage.
	ClassResource
)

func (c Class) String() string {
	switch c {
	case ClassAuthorization:
		return "authorization"
	case ClassValidation:
		return "validation"
	case ClassState:
		return "state"
	case ClassResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is a named failure with a stable numeric code. Instances are declared
// once as package variables and compared with errors.Is.
type Error struct {
	Code  uint32
	Name  string
	Class Class
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

// NewError declares a named failure.
func NewError(code uint32, name string, class Class, msg string) *Error {
	return &Error{Code: code, Name: name, Class: class, Msg: msg}
}

// AsError unwraps err to the first *Error in its chain.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// ClassOf reports the class of err, or ClassUnknown for infrastructure
// failures that carry no named error.
func ClassOf(err error) Class {
	if named, ok := AsError(err); ok {
		return named.Class
	}
	return ClassUnknown
}

var (
	ErrInvalidAccountOwner = NewError(6000, "InvalidAccountOwner", ClassAuthorization, "Account not owned by program")
	ErrAccountNotFound     = NewError(6001, "AccountNotFound", ClassState, "Account does not exist")
	ErrAccountExists       = NewError(6002, "AccountAlreadyInUse", ClassState, "Account already in use")
	ErrInsufficientReserve = NewError(6003, "InsufficientReserve", ClassResource, "Reserve payer cannot cover the required balance")
	ErrSizeOverflow        = NewError(6004, "SizeOverflow", ClassValidation, "Size computation overflowed")
	ErrRecordOverflow      = NewError(6005, "RecordOverflow", ClassState, "Encoded record exceeds allocated space")
	ErrModulePaused        = NewError(6006, "ModulePaused", ClassAuthorization, "Module is paused")
)
