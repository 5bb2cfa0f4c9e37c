package tictactoe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// playMoves applies the moves in order and fails the test if one is ignored.
func playMoves(t *testing.T, engine *Engine, moves ...entity.Move) {
	t.Helper()

	for i, move := range moves {
		require.True(t, engine.ApplyMove(move.Row, move.Col), "move %d (%s) was ignored", i, move)
	}
}

func mv(row, col int) entity.Move {
	return entity.Move{Row: row, Col: col}
}

func TestNew(t *testing.T) {
	// When: create a new engine
	engine := New()

	// Then: the state should be the fresh configuration
	expected := entity.GameState{
		Board:         entity.Board{},
		CurrentPlayer: entity.PlayerX,
		Outcome:       entity.NoOutcome,
		IsOver:        false,
	}

	require.Equal(t, expected, engine.Snapshot())
}

func TestEngine_ApplyMove(t *testing.T) {
	t.Run("First move marks the cell and passes the turn", func(t *testing.T) {
		// Given: an empty board
		engine := New()

		// When: X plays 0,0
		applied := engine.ApplyMove(0, 0)

		// Then: the cell is X, O is to move and the game continues
		require.True(t, applied)

		state := engine.Snapshot()
		assert.Equal(t, entity.Mark(entity.PlayerX), state.Board[0][0])
		assert.Equal(t, entity.PlayerO, state.CurrentPlayer)
		assert.Equal(t, entity.NoOutcome, state.Outcome)
		assert.False(t, state.IsOver)
	})

	t.Run("Completing a row wins immediately", func(t *testing.T) {
		// Given: X holds 0,0 and 0,1 while O holds 1,0 and 1,1
		engine := New()
		playMoves(t, engine, mv(0, 0), mv(1, 0), mv(0, 1), mv(1, 1))
		require.False(t, engine.Snapshot().IsOver)

		// When: X completes row 0
		require.True(t, engine.ApplyMove(0, 2))

		// Then: X wins and stays the current player
		state := engine.Snapshot()
		assert.Equal(t, entity.WinOutcome(entity.PlayerX), state.Outcome)
		assert.True(t, state.IsOver)
		assert.Equal(t, entity.PlayerX, state.CurrentPlayer)
	})

	t.Run("O can win too", func(t *testing.T) {
		// Given: O holds two cells of column 2
		engine := New()
		playMoves(t, engine, mv(0, 0), mv(0, 2), mv(1, 1), mv(1, 2), mv(2, 0))

		// When: O completes column 2
		require.True(t, engine.ApplyMove(2, 2))

		// Then: O wins and stays the current player
		state := engine.Snapshot()
		assert.Equal(t, entity.WinOutcome(entity.PlayerO), state.Outcome)
		assert.Equal(t, entity.PlayerO, state.CurrentPlayer)
	})

	t.Run("Full board without a line is a tie", func(t *testing.T) {
		// Given: a sequence that fills X,O,X / X,O,O / O,X,X
		engine := New()
		playMoves(t, engine,
			mv(0, 0), mv(0, 1), mv(0, 2), mv(1, 1), mv(1, 0),
			mv(2, 0), mv(2, 1), mv(1, 2),
		)
		require.False(t, engine.Snapshot().IsOver)

		// When: X fills the last cell
		require.True(t, engine.ApplyMove(2, 2))

		// Then: the game is tied
		state := engine.Snapshot()
		assert.Equal(t, entity.Board{
			{"X", "O", "X"},
			{"X", "O", "O"},
			{"O", "X", "X"},
		}, state.Board)
		assert.Equal(t, entity.TieOutcome, state.Outcome)
		assert.True(t, state.IsOver)
		assert.Equal(t, entity.PlayerX, state.CurrentPlayer)
	})

	t.Run("Turns alternate after every non-terminal move", func(t *testing.T) {
		engine := New()

		for i, move := range []entity.Move{mv(1, 1), mv(0, 0), mv(2, 2), mv(0, 2)} {
			mover := engine.Snapshot().CurrentPlayer

			require.True(t, engine.ApplyMove(move.Row, move.Col))

			assert.Equal(t, mover.Other(), engine.Snapshot().CurrentPlayer, "after move %d", i)
		}
	})
}

func TestEngine_ApplyMove_Ignored(t *testing.T) {
	t.Run("Occupied cell leaves the state unchanged", func(t *testing.T) {
		// Given: X has played 0,0
		engine := New()
		playMoves(t, engine, mv(0, 0))
		before := engine.Snapshot()

		// When: O tries the same cell
		applied := engine.ApplyMove(0, 0)

		// Then: the move is ignored and the state is identical
		assert.False(t, applied)
		assert.Equal(t, before, engine.Snapshot())
	})

	t.Run("Coordinates outside the board are ignored", func(t *testing.T) {
		engine := New()
		before := engine.Snapshot()

		for _, move := range []entity.Move{mv(-1, 0), mv(0, -1), mv(3, 0), mv(0, 3), mv(20, 20)} {
			assert.False(t, engine.ApplyMove(move.Row, move.Col), "move %s", move)
		}

		assert.Equal(t, before, engine.Snapshot())
	})

	t.Run("Moves after a win are ignored", func(t *testing.T) {
		// Given: X has won on row 0
		engine := New()
		playMoves(t, engine, mv(0, 0), mv(1, 0), mv(0, 1), mv(1, 1), mv(0, 2))
		before := engine.Snapshot()

		// When: a move is made on every remaining empty cell
		for _, move := range []entity.Move{mv(1, 2), mv(2, 0), mv(2, 1), mv(2, 2)} {
			assert.False(t, engine.ApplyMove(move.Row, move.Col))
		}

		// Then: the state is locked
		assert.Equal(t, before, engine.Snapshot())
	})

	t.Run("Moves after a tie are ignored", func(t *testing.T) {
		engine := New()
		playMoves(t, engine,
			mv(0, 0), mv(0, 1), mv(0, 2), mv(1, 1), mv(1, 0),
			mv(2, 0), mv(2, 1), mv(1, 2), mv(2, 2),
		)
		before := engine.Snapshot()

		assert.False(t, engine.ApplyMove(1, 1))
		assert.Equal(t, before, engine.Snapshot())
	})
}

func TestEngine_Reset(t *testing.T) {
	t.Run("Reset after a win restores the fresh configuration", func(t *testing.T) {
		// Given: a game won by X
		engine := New()
		playMoves(t, engine, mv(0, 0), mv(1, 0), mv(0, 1), mv(1, 1), mv(0, 2))
		require.True(t, engine.Snapshot().IsOver)

		// When: the game is reset
		engine.Reset()

		// Then: the board is empty and X is to move
		assert.Equal(t, entity.NewGameState(), engine.Snapshot())
	})

	t.Run("Reset mid-game", func(t *testing.T) {
		engine := New()
		playMoves(t, engine, mv(1, 1), mv(0, 0))

		engine.Reset()

		assert.Equal(t, entity.NewGameState(), engine.Snapshot())
	})

	t.Run("Reset is idempotent", func(t *testing.T) {
		engine := New()
		playMoves(t, engine, mv(2, 2))

		engine.Reset()
		first := engine.Snapshot()
		engine.Reset()

		assert.Equal(t, first, engine.Snapshot())
	})

	t.Run("Moves are accepted again after reset", func(t *testing.T) {
		engine := New()
		playMoves(t, engine, mv(0, 0), mv(1, 0), mv(0, 1), mv(1, 1), mv(0, 2))

		engine.Reset()

		assert.True(t, engine.ApplyMove(0, 0))
		assert.Equal(t, entity.PlayerO, engine.Snapshot().CurrentPlayer)
	})
}

func TestEngine_Snapshot(t *testing.T) {
	// Given: an engine with one move
	engine := New()
	playMoves(t, engine, mv(1, 1))

	// When: the caller modifies the returned snapshot
	snapshot := engine.Snapshot()
	snapshot.Board[0][0] = entity.Mark(entity.PlayerO)
	snapshot.Board[1][1] = entity.EmptyCell
	snapshot.CurrentPlayer = entity.PlayerX

	// Then: the engine state is untouched
	state := engine.Snapshot()
	assert.True(t, state.Board[0][0].IsEmpty())
	assert.Equal(t, entity.Mark(entity.PlayerX), state.Board[1][1])
	assert.Equal(t, entity.PlayerO, state.CurrentPlayer)
}

func TestEngine_ConcurrentMoves(t *testing.T) {
	// Given: many goroutines racing for every cell of one engine
	engine := New()

	const workers = 64

	var wg sync.WaitGroup
	wg.Add(workers)

	applied := make(chan bool, workers)
	for i := range workers {
		go func(cell int) {
			defer wg.Done()
			applied <- engine.ApplyMove(cell/entity.BoardSize, cell%entity.BoardSize)
		}(i % (entity.BoardSize * entity.BoardSize))
	}

	wg.Wait()
	close(applied)

	appliedCount := 0
	for ok := range applied {
		if ok {
			appliedCount++
		}
	}

	// Then: every applied move left exactly one mark and the state is reachable by legal play
	state := engine.Snapshot()
	marks := state.Board.Count(entity.PlayerX) + state.Board.Count(entity.PlayerO)
	assert.Equal(t, appliedCount, marks)

	restored, err := Restore(state.Board)
	require.NoError(t, err)
	assert.Equal(t, state, restored.Snapshot())
}
