// Package engine wires the position, evaluator, transposition table and
// search driver behind a mutex-guarded API the protocol drivers (uci,
// console) call into.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/eval"
	"github.com/mbryant/corvid/pkg/search/searchctl"
	"github.com/mbryant/corvid/pkg/timer"
	"github.com/mbryant/corvid/pkg/tt"
)

var version = build.NewVersion(0, 1, 0)

// Options are engine creation options.
type Options struct {
	// Depth is the default search depth limit. Zero means no limit.
	Depth uint
	// Hash is the transposition table size in MB. Zero uses the default size.
	Hash uint
}

func (o Options) String() string {
	return fmt.Sprintf("{depth=%v, hash=%vMB}", o.Depth, o.Hash)
}

// SearchParams are the dynamic, per-"go" parameters a driver parses out of a
// UCI go command.
type SearchParams struct {
	// DepthLimit, if set, overrides Options.Depth for this search only. Unset
	// (the zero Optional) defers to Options.Depth, which may itself be 0 (no limit).
	DepthLimit           lang.Optional[uint]
	MoveTime             time.Duration
	Remaining, Increment time.Duration
	Infinite             bool
	Debug                bool
	OnInfo               func(searchctl.Update)
}

// Engine encapsulates game state, search and evaluation. Safe for concurrent
// use by a protocol driver's own goroutines.
type Engine struct {
	name, author string
	opts         Options
	eval         eval.Evaluator
	driver       searchctl.Iterative

	mu                     sync.Mutex
	table                  *tt.Table
	pos                    *board.Position
	history                []board.ZobristHash
	pliesSinceIrreversible int

	searching *atomic.Bool
	stopTimer func()
	wg        sync.WaitGroup
}

// Option is an engine creation option.
type Option func(*Engine)

// WithOptions sets default runtime options.
func WithOptions(opts Options) Option {
	return func(e *Engine) {
		e.opts = opts
	}
}

// WithEvaluator overrides the default static evaluator.
func WithEvaluator(ev eval.Evaluator) Option {
	return func(e *Engine) {
		e.eval = ev
	}
}

func New(ctx context.Context, name, author string, opts ...Option) *Engine {
	e := &Engine{
		name:      name,
		author:    author,
		eval:      eval.Standard{},
		searching: atomic.NewBool(false),
	}
	for _, fn := range opts {
		fn(e)
	}

	_ = e.NewGame(ctx)

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

func (e *Engine) SetDepth(depth uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Depth = depth
}

func (e *Engine) SetHash(mb uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Hash = mb
	e.table = newTable(mb)
}

func newTable(mb uint) *tt.Table {
	if mb == 0 {
		return tt.New()
	}
	return tt.NewSized(uint64(mb) << 20)
}

// NewGame implements "ucinewgame": fresh transposition table, standard
// opening, cleared history, zeroed irreversible counter, initial hash pushed.
func (e *Engine) NewGame(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked(ctx)

	pos, err := board.NewPosition(board.Initial)
	if err != nil {
		return err
	}
	e.pos = pos
	e.table = newTable(e.opts.Hash)
	e.history = []board.ZobristHash{pos.Hash()}
	e.pliesSinceIrreversible = 0

	logw.Infof(ctx, "New game: %v", e.pos)
	return nil
}

// SetPosition implements the "position" command's root-setting half: the FEN
// (or standard opening) becomes the current position, with its own fresh
// history. The transposition table is left untouched — only ucinewgame
// clears it.
func (e *Engine) SetPosition(ctx context.Context, fen string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked(ctx)

	pos, err := board.NewPosition(fen)
	if err != nil {
		return err
	}
	e.pos = pos
	e.history = []board.ZobristHash{pos.Hash()}
	e.pliesSinceIrreversible = 0

	logw.Infof(ctx, "New position: %v", e.pos)
	return nil
}

// Move replays one move against the current position, extending history and
// the irreversible counter per §3. Used for the "position ... moves ..."
// replay and for the console driver's interactive play.
func (e *Engine) Move(ctx context.Context, uciMove string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cand, err := board.ParseMove(uciMove)
	if err != nil {
		return fmt.Errorf("invalid move %q: %w", uciMove, err)
	}

	var m board.Move
	found := false
	for _, legal := range e.pos.LegalMoves() {
		if legal.Equals(cand) {
			m = legal
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("illegal move: %v", uciMove)
	}

	irreversible := e.pos.IsIrreversible(m)
	e.pos = e.pos.ApplyClone(m)
	if irreversible {
		e.pliesSinceIrreversible = 0
	} else {
		e.pliesSinceIrreversible++
	}
	e.history = append(e.history, e.pos.Hash())

	logw.Infof(ctx, "Move %v: %v", m, e.pos)
	return nil
}

// Position returns the current position's FEN.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pos.FEN()
}

// Board returns the current position, for read-only inspection (console
// driver board printing).
func (e *Engine) Board() *board.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pos
}

// Go starts a search on a fresh worker goroutine. onDone is called exactly
// once, from that goroutine, with the final result. It is an error to call
// Go while a search is already active.
func (e *Engine) Go(ctx context.Context, p SearchParams, onDone func(searchctl.Result)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.searching.Load() {
		return fmt.Errorf("search already active")
	}

	pos := e.pos
	history := append([]board.ZobristHash(nil), e.history...)
	plies := e.pliesSinceIrreversible
	table := e.table
	ev := e.eval

	depthLimit, ok := p.DepthLimit.V()
	if !ok {
		depthLimit = e.opts.Depth
	}

	e.searching.Store(true)

	budget := p.MoveTime
	if budget == 0 && !p.Infinite && (p.Remaining > 0 || p.Increment > 0) {
		budget = timer.MoveTime(p.Remaining, p.Increment)
	}
	e.stopTimer = timer.Start(e.searching, budget, p.Infinite || budget <= 0)

	logw.Infof(ctx, "Go %v, depth=%v, budget=%v, infinite=%v", pos, depthLimit, budget, p.Infinite)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		result := e.driver.Run(pos, ev, table, e.searching, int(depthLimit), history, plies, p.Debug, p.OnInfo)

		e.mu.Lock()
		if e.stopTimer != nil {
			e.stopTimer()
			e.stopTimer = nil
		}
		e.mu.Unlock()

		if onDone != nil {
			onDone(result)
		}
	}()
	return nil
}

// Stop clears the searching flag, causing the active worker to wind down and
// call its onDone callback with the last completed iteration. No-op if no
// search is active.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked(ctx)
}

// Wait blocks until any active search worker has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) haltLocked(ctx context.Context) {
	if e.searching.CompareAndSwap(true, false) {
		logw.Infof(ctx, "Halting active search")
	}
	if e.stopTimer != nil {
		e.stopTimer()
		e.stopTimer = nil
	}
}
