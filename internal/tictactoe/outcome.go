package tictactoe

import "github.com/rocketscienceinc/tictactoe-engine/internal/entity"

// WinCombos lists every line of the board as flat cell indexes (row*3+col) in evaluation
// order: rows 0..2, columns 0..2, main diagonal, anti-diagonal.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate classifies the board. The first completed line in WinCombos order decides the
// winner; a full board without a line is a tie.
func Evaluate(board entity.Board) entity.Outcome {
	for _, combo := range WinCombos {
		a, b, c := cellAt(board, combo[0]), cellAt(board, combo[1]), cellAt(board, combo[2])
		if !a.IsEmpty() && a == b && b == c {
			winner, _ := a.Player()
			return entity.WinOutcome(winner)
		}
	}

	// the game continues until all the squares are full
	if !board.IsFull() {
		return entity.NoOutcome
	}

	return entity.TieOutcome
}

func cellAt(board entity.Board, index int) entity.Cell {
	return board[index/entity.BoardSize][index%entity.BoardSize]
}
