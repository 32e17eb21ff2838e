package tt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/tt"
)

func TestLookupMiss(t *testing.T) {
	table := tt.NewSized(1 << 16)

	_, ok := table.Lookup(board.ZobristHash(12345))
	assert.False(t, ok)
}

func TestStoreAndLookup(t *testing.T) {
	table := tt.NewSized(1 << 20)

	hash := board.ZobristHash(0xdeadbeef)
	node := tt.Node{Score: 42, Depth: 3, Bound: tt.Exact}
	table.Store(hash, node)

	got, ok := table.Lookup(hash)
	assert.True(t, ok)
	assert.Equal(t, hash, got.Hash)
	assert.Equal(t, node.Score, got.Score)
	assert.Equal(t, node.Depth, got.Depth)
	assert.Equal(t, tt.Exact, got.Bound)
}

func TestDepthReplacementPolicy(t *testing.T) {
	table := tt.NewSized(1 << 20)
	hash := board.ZobristHash(7)

	table.Store(hash, tt.Node{Score: 1, Depth: 5})

	// Equal depth: never overwritten.
	table.Store(hash, tt.Node{Score: 2, Depth: 5})
	got, ok := table.Lookup(hash)
	assert.True(t, ok)
	assert.Equal(t, tt.Node{Score: 1, Depth: 5, Hash: hash}, got)

	// Lesser depth: never overwritten.
	table.Store(hash, tt.Node{Score: 3, Depth: 4})
	got, ok = table.Lookup(hash)
	assert.True(t, ok)
	assert.Equal(t, tt.Node{Score: 1, Depth: 5, Hash: hash}, got)

	// Strictly greater depth: overwritten.
	table.Store(hash, tt.Node{Score: 4, Depth: 6})
	got, ok = table.Lookup(hash)
	assert.True(t, ok)
	assert.Equal(t, tt.Node{Score: 4, Depth: 6, Hash: hash}, got)
}

func TestLookupDoesNotVerifyHash(t *testing.T) {
	// A one-slot table forces a collision: the caller, not Lookup, is
	// responsible for checking the returned Node's Hash.
	table := tt.NewSized(1)
	assert.Equal(t, uint64(1), table.Len())

	table.Store(board.ZobristHash(1), tt.Node{Score: 9})

	got, ok := table.Lookup(board.ZobristHash(2))
	assert.True(t, ok)
	assert.NotEqual(t, board.ZobristHash(2), got.Hash)
}
