package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"passmint/storage"
)

func TestTrieCommitPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)
	require.False(t, tr.Dirty())

	key := []byte("issuer/guild")
	value := []byte("record")
	require.NoError(t, tr.Update(key, value))
	require.True(t, tr.Dirty())

	root, err := tr.Commit(1)
	require.NoError(t, err)
	require.Equal(t, root, tr.Root())
	require.False(t, tr.Dirty())

	db1.Close()

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)

	got, err := restored.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestTrieCopyIsolatesMutations(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)
	key := []byte("receipt/a")
	require.NoError(t, tr.Update(key, []byte("v1")))
	_, err = tr.Commit(1)
	require.NoError(t, err)

	working := tr.Copy()
	require.NoError(t, working.Update(key, []byte("v2")))
	require.True(t, working.Dirty())
	require.False(t, tr.Dirty())

	got, err := tr.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	got, err = working.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
	require.NotEqual(t, tr.Hash(), working.Hash())
}

func TestTrieDelete(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)
	key := []byte("activity/a")
	require.NoError(t, tr.Update(key, []byte("entry")))
	root, err := tr.Commit(1)
	require.NoError(t, err)

	require.NoError(t, tr.Delete(key))
	got, err := tr.Get(key)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, root, tr.Root())

	reopened, err := NewTrie(db, root.Bytes())
	require.NoError(t, err)
	got, err = reopened.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("entry"), got)
}
