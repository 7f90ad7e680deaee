// Package metadata attaches display key/value fields to assets.
package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
	nativecommon "passmint/native/common"
)

var (
	ErrUpdateAuthority = nativecommon.NewError(6400, "InvalidMetadataAuthority", nativecommon.ClassAuthorization, "Signer is not the metadata update authority")
	ErrEmptyKey        = nativecommon.NewError(6401, "EmptyMetadataKey", nativecommon.ClassValidation, "Metadata key must not be empty")
	ErrAssetNotFound   = nativecommon.NewError(6402, "MetadataAssetNotFound", nativecommon.ClassState, "Asset is not registered")
)

// State is the slice of state the store needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	Asset(addr common.Address) (*types.Asset, error)
}

// Field is one key/value pair.
type Field struct {
	Key   string
	Value string
}

// Store keeps the fields of every asset sorted by key.
type Store struct {
	st State
}

func NewStore(st State) *Store {
	return &Store{st: st}
}

func fieldsKey(asset common.Address) []byte {
	return append([]byte("metadata/fields/"), asset.Bytes()...)
}

// Fields returns the fields attached to asset in key order.
func (s *Store) Fields(asset common.Address) ([]Field, error) {
	var fields []Field
	if _, err := s.st.KVGet(fieldsKey(asset), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (s *Store) authorize(asset, authority common.Address) error {
	def, err := s.st.Asset(asset)
	if err != nil {
		return err
	}
	if def == nil {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, asset.Hex())
	}
	if def.UpdateAuthority != authority {
		return ErrUpdateAuthority
	}
	return nil
}

func (s *Store) write(asset common.Address, fields []Field) error {
	if len(fields) == 0 {
		return s.st.KVDelete(fieldsKey(asset))
	}
	return s.st.KVPut(fieldsKey(asset), fields)
}

// Set inserts or replaces the field stored under key.
func (s *Store) Set(asset, authority common.Address, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.authorize(asset, authority); err != nil {
		return err
	}
	fields, err := s.Fields(asset)
	if err != nil {
		return err
	}
	idx := sort.Search(len(fields), func(i int) bool { return fields[i].Key >= key })
	if idx < len(fields) && fields[idx].Key == key {
		fields[idx].Value = value
	} else {
		fields = append(fields, Field{})
		copy(fields[idx+1:], fields[idx:])
		fields[idx] = Field{Key: key, Value: value}
	}
	return s.write(asset, fields)
}

// Remove deletes the field stored under key. Removing an absent key succeeds.
func (s *Store) Remove(asset, authority common.Address, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.authorize(asset, authority); err != nil {
		return err
	}
	fields, err := s.Fields(asset)
	if err != nil {
		return err
	}
	idx := sort.Search(len(fields), func(i int) bool { return fields[i].Key >= key })
	if idx == len(fields) || fields[idx].Key != key {
		return nil
	}
	fields = append(fields[:idx], fields[idx+1:]...)
	return s.write(asset, fields)
}

// Clear drops every field of asset. It does not check authority so it can
// run after the asset itself has been closed.
func (s *Store) Clear(asset common.Address) error {
	return s.st.KVDelete(fieldsKey(asset))
}
