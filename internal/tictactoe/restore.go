package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// Restore builds a new engine from a persisted board. Outcome and current player are
// derived from the board alone; boards that legal alternating play cannot produce are
// rejected with apperror.ErrInconsistentState.
func Restore(board entity.Board) (*Engine, error) {
	for row := range board {
		for col, cell := range board[row] {
			if _, ok := cell.Player(); !ok && !cell.IsEmpty() {
				return nil, fmt.Errorf("%w: unknown mark %q at %d,%d", apperror.ErrInconsistentState, cell, row, col)
			}
		}
	}

	// X always moves first, so X leads by one mark or the counts are equal
	lead := board.Count(entity.PlayerX) - board.Count(entity.PlayerO)
	if lead != 0 && lead != 1 {
		return nil, fmt.Errorf("%w: X leads O by %d marks", apperror.ErrInconsistentState, lead)
	}

	if lineOwners(board) > 1 {
		return nil, fmt.Errorf("%w: both players completed a line", apperror.ErrInconsistentState)
	}

	lastMover := entity.PlayerO
	if lead == 1 {
		lastMover = entity.PlayerX
	}

	outcome := Evaluate(board)
	if outcome.Kind == entity.OutcomeWin && outcome.Winner != lastMover {
		return nil, fmt.Errorf("%w: %s won but %s moved last", apperror.ErrInconsistentState, outcome.Winner, lastMover)
	}

	state := entity.GameState{
		Board:         board,
		CurrentPlayer: lastMover.Other(),
		Outcome:       outcome,
		IsOver:        outcome.IsTerminal(),
	}

	if state.IsOver {
		state.CurrentPlayer = lastMover
	}

	return &Engine{state: state}, nil
}

// lineOwners returns how many distinct players completed at least one line.
func lineOwners(board entity.Board) int {
	owners := make(map[entity.Cell]struct{}, 2)
	for _, combo := range WinCombos {
		a, b, c := cellAt(board, combo[0]), cellAt(board, combo[1]), cellAt(board, combo[2])
		if !a.IsEmpty() && a == b && b == c {
			owners[a] = struct{}{}
		}
	}

	return len(owners)
}
