package tictactoe

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// Engine is the authoritative state of one game. All methods are safe for concurrent use;
// each call runs to completion against a consistent board.
type Engine struct {
	mu    sync.Mutex
	state entity.GameState
}

// New returns an engine in the fresh configuration.
func New() *Engine {
	return &Engine{state: entity.NewGameState()}
}

// ApplyMove puts the current player's mark on (row, col). Moves outside the board, onto an
// occupied cell, or after the game is over are ignored and leave the state untouched.
// The result reports whether the move was applied.
func (that *Engine) ApplyMove(row, col int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.canApply(row, col) {
		return false
	}

	mover := that.state.CurrentPlayer
	that.state.Board[row][col] = entity.Mark(mover)

	that.state.Outcome = Evaluate(that.state.Board)
	that.state.IsOver = that.state.Outcome.IsTerminal()

	// the mover stays current once the game is over
	if !that.state.IsOver {
		that.state.CurrentPlayer = mover.Other()
	}

	return true
}

func (that *Engine) canApply(row, col int) bool {
	if that.state.IsOver {
		return false
	}

	if !entity.InBounds(row, col) {
		return false
	}

	return that.state.Board[row][col].IsEmpty()
}

// Reset returns the game to the fresh configuration.
func (that *Engine) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.state = entity.NewGameState()
}

// Snapshot returns a copy of the current state. Changing it does not affect the engine.
func (that *Engine) Snapshot() entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}
