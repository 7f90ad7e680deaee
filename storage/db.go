package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is the backing store for the ledger. Small metadata values (head
// root, committed height) go through Put/Get while trie nodes live in the
// triedb returned by TrieDB.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	TrieDB() *triedb.Database
	Close()
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	disk   ethdb.Database
	trieDB *triedb.Database
}

func NewMemDB() *MemDB {
	disk := rawdb.NewMemoryDatabase()
	return &MemDB{
		data:   make(map[string][]byte),
		disk:   disk,
		trieDB: triedb.NewDatabase(disk, nil),
	}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (db *MemDB) TrieDB() *triedb.Database {
	return db.trieDB
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	db.trieDB.Close()
	db.disk.Close()
}

// --- Persistent DB ---

// LevelDB keeps metadata in a goleveldb database under <path>/meta and trie
// nodes in a go-ethereum leveldb store under <path>/state.
type LevelDB struct {
	meta   *leveldb.DB
	disk   ethdb.Database
	trieDB *triedb.Database
}

// NewLevelDB creates or opens the databases rooted at path.
func NewLevelDB(path string) (*LevelDB, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	meta, err := leveldb.OpenFile(filepath.Join(path, "meta"), nil)
	if err != nil {
		return nil, fmt.Errorf("open meta db: %w", err)
	}
	kv, err := gethleveldb.New(filepath.Join(path, "state"), 16, 16, "passmint/state/", false)
	if err != nil {
		meta.Close()
		return nil, fmt.Errorf("open state db: %w", err)
	}
	disk := rawdb.NewDatabase(kv)
	return &LevelDB{
		meta:   meta,
		disk:   disk,
		trieDB: triedb.NewDatabase(disk, nil),
	}, nil
}

// Put inserts or updates a metadata value.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.meta.Put(key, value, nil)
}

// Get retrieves a metadata value.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := ldb.meta.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (ldb *LevelDB) TrieDB() *triedb.Database {
	return ldb.trieDB
}

// Close flushes the trie database and closes both stores.
func (ldb *LevelDB) Close() {
	ldb.trieDB.Close()
	ldb.disk.Close()
	ldb.meta.Close()
}
