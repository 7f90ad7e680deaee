// Package trie persists ledger state in a Merkle-Patricia trie backed by the
// node's triedb. Keys are hashed with keccak256 before they reach the trie so
// callers work with readable prefixed keys.
package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"passmint/storage"
)

// Trie is a working view over the state at some committed root. It is not
// safe for concurrent use.
type Trie struct {
	nodes *triedb.Database
	trie  *gethtrie.Trie
	root  common.Hash
	dirty bool
}

// NewTrie opens the trie at root. A nil or empty root denotes the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	t := &Trie{nodes: store.TrieDB()}
	if err := t.open(rootHash); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie) open(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.nodes)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	t.dirty = false
	return nil
}

func hashKey(key []byte) []byte { return crypto.Keccak256(key) }

// Get returns the value stored at key, or nil when absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(hashKey(key))
}

// Update writes value at key. An empty value removes the key.
func (t *Trie) Update(key, value []byte) error {
	t.dirty = true
	return t.trie.Update(hashKey(key), value)
}

func (t *Trie) Delete(key []byte) error {
	t.dirty = true
	return t.trie.Delete(hashKey(key))
}

// Hash returns the root hash including uncommitted mutations.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Dirty reports whether the trie was written since it was opened or last
// committed. Writes that restore the previous value still count.
func (t *Trie) Dirty() bool {
	return t.dirty
}

// Copy returns an independent working copy sharing the node database.
func (t *Trie) Copy() *Trie {
	return &Trie{
		nodes: t.nodes,
		trie:  t.trie.Copy(),
		root:  t.root,
		dirty: t.dirty,
	}
}

// Commit flushes pending nodes at height and reopens the trie at the new
// root.
func (t *Trie) Commit(height uint64) (common.Hash, error) {
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.nodes.Update(newRoot, t.root, height, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.nodes.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	if err := t.open(newRoot); err != nil {
		return common.Hash{}, err
	}
	return newRoot, nil
}
