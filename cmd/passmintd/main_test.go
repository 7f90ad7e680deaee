package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passmint/core"
	"passmint/storage"
)

func TestResolveGenesisPathPrecedence(t *testing.T) {
	env := map[string]string{genesisPathEnv: " /env/genesis.json "}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	assert.Equal(t, "/flag.json", resolveGenesisPath(" /flag.json", "/cfg.json", lookup))
	assert.Equal(t, "/env/genesis.json", resolveGenesisPath("", "/cfg.json", lookup))
	assert.Equal(t, "/cfg.json", resolveGenesisPath("", "/cfg.json", nil))

	env[genesisPathEnv] = "   "
	assert.Equal(t, "/cfg.json", resolveGenesisPath("", "/cfg.json", lookup))
	assert.Empty(t, resolveGenesisPath("", "", lookup))
}

func TestCommitLoopStopsWhenServerExits(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, err := core.NewNode(db, "")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	serveErr <- errors.New("listener closed")
	done := make(chan struct{})
	go func() {
		runCommitLoop(context.Background(), node, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)), serveErr)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("commit loop did not stop")
	}
	assert.Equal(t, uint64(0), node.Height())
}

func TestCommitLoopSkipsUnchangedState(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, err := core.NewNode(db, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	runCommitLoop(ctx, node, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	assert.Equal(t, uint64(0), node.Height())
	assert.False(t, node.Pending())
}
