// Package tt implements the transposition table (component B): a
// fixed-capacity, hash-indexed cache of prior search results. Capacity never
// grows during a search; collisions are resolved by a depth-based
// replacement policy, never by chaining.
package tt

import (
	"sync/atomic"
	"unsafe"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/eval"
)

// Bound is the alpha-beta bound type of a stored score.
type Bound uint8

const (
	Exact Bound = iota
	Lower
	Upper
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "Exact"
	case Lower:
		return "Lower"
	case Upper:
		return "Upper"
	default:
		return "?"
	}
}

// Node is the unit stored in the table: a prior search result for one
// position, keyed by its Zobrist hash.
type Node struct {
	Hash        board.ZobristHash
	Score       eval.Score
	BestMove    board.Move
	Depth       int
	Bound       Bound
	MateInPlies int  // plies to mate; meaningful only when HasMate is set.
	HasMate     bool // whether MateInPlies is meaningful (zero is a valid distance: mated now)
	Terminal    bool // true iff every explored line hit a rule-based terminal, not the evaluator
}

const bytesPerEntry = 240 // generous upper bound per slot incl. pointer + Node fields + padding

// sizeBudget is the default capacity target: 240MB, per spec.
const sizeBudget = 240 * 1_000_000

// Table is a fixed-length array of *Node, indexed by hash modulo length. One
// slot per index; a losing collision is silently discarded, never chained.
type Table struct {
	slots []unsafe.Pointer // *Node
	n     uint64
}

// New allocates a table sized to consume at most 240MB.
func New() *Table {
	return NewSized(sizeBudget)
}

// NewSized allocates a table sized to consume at most maxBytes.
func NewSized(maxBytes uint64) *Table {
	n := maxBytes / bytesPerEntry
	if n == 0 {
		n = 1
	}
	return &Table{slots: make([]unsafe.Pointer, n), n: n}
}

// Len returns the number of slots in the table.
func (t *Table) Len() uint64 {
	return t.n
}

func (t *Table) index(hash board.ZobristHash) uint64 {
	return uint64(hash) % t.n
}

// Lookup returns the slot for the given hash and true iff occupied. The
// caller MUST verify the returned Node's Hash matches before trusting it —
// a different position may have been hashed to the same slot.
func (t *Table) Lookup(hash board.ZobristHash) (Node, bool) {
	addr := &t.slots[t.index(hash)]
	ptr := (*Node)(atomic.LoadPointer(addr))
	if ptr == nil {
		return Node{}, false
	}
	return *ptr, true
}

// Store places node at hash's slot, but only if the existing occupant has a
// strictly lesser depth, or the slot is empty. Equal-depth entries are never
// overwritten, so re-entrant searches at the same depth stay stable.
func (t *Table) Store(hash board.ZobristHash, node Node) {
	node.Hash = hash
	addr := &t.slots[t.index(hash)]
	fresh := &node

	for {
		old := (*Node)(atomic.LoadPointer(addr))
		if old != nil && old.Depth >= node.Depth {
			return // skip: existing entry is at least as deep
		}
		if atomic.CompareAndSwapPointer(addr, unsafe.Pointer(old), unsafe.Pointer(fresh)) {
			return
		}
		// else: lost the race, retry against whatever is there now
	}
}
