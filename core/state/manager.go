package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"passmint/storage/trie"
)

var errEmptyKey = errors.New("state: key must not be empty")

// Manager stores RLP encoded records in the state trie under prefixed keys.
// One manager is bound to the working copy of a single transition.
type Manager struct {
	trie *trie.Trie
}

func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Root returns the state root including uncommitted writes.
func (m *Manager) Root() common.Hash {
	return m.trie.Hash()
}

// KVPut encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return errEmptyKey
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.trie.Update(key, encoded)
}

// KVGet decodes the record under key into out, which may be nil to test for
// presence. The boolean reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, errEmptyKey
	}
	data, err := m.trie.Get(key)
	if err != nil || len(data) == 0 {
		return false, err
	}
	if out != nil {
		if err := rlp.DecodeBytes(data, out); err != nil {
			return false, fmt.Errorf("state: decode %q: %w", key, err)
		}
	}
	return true, nil
}

// KVDelete removes key. Deleting an absent key is not an error.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return errEmptyKey
	}
	return m.trie.Delete(key)
}
