package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

// BoardSize is the side length of the board.
const BoardSize = 3

const (
	PlayerX Player = "X"
	PlayerO Player = "O"

	// PlayerTie is the winner marker of a game that ended in a tie.
	PlayerTie = "-"

	EmptyCell Cell = ""
)

// Player is the mark a player puts on the board.
type Player string

// Other returns the opponent of the player.
func (that Player) Other() Player {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Player) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

// Cell is either EmptyCell or the mark of a player.
type Cell string

// Mark returns the cell holding the player's mark.
func Mark(player Player) Cell {
	return Cell(player)
}

func (that Cell) IsEmpty() bool {
	return that == EmptyCell
}

// Player returns the player owning the cell. ok is false for an empty cell.
func (that Cell) Player() (Player, bool) {
	player := Player(that)
	return player, player.IsValid()
}

// Board is a fixed 3x3 grid indexed as [row][col]. Copying a Board copies every cell.
type Board [BoardSize][BoardSize]Cell

// InBounds reports whether row and col address a cell of the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

func (that Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell.IsEmpty() {
				return false
			}
		}
	}

	return true
}

// Count returns the number of cells holding the player's mark.
func (that Board) Count(player Player) int {
	count := 0
	for _, row := range that {
		for _, cell := range row {
			if cell == Mark(player) {
				count++
			}
		}
	}

	return count
}

type OutcomeKind uint8

const (
	OutcomeNone OutcomeKind = iota
	OutcomeWin
	OutcomeTie
)

// Outcome is the result classification of a game. The zero value is a game in progress.
type Outcome struct {
	Kind   OutcomeKind
	Winner Player
}

var (
	NoOutcome  = Outcome{Kind: OutcomeNone}
	TieOutcome = Outcome{Kind: OutcomeTie}
)

func WinOutcome(player Player) Outcome {
	return Outcome{Kind: OutcomeWin, Winner: player}
}

// IsTerminal reports whether no further moves are accepted.
func (that Outcome) IsTerminal() bool {
	return that.Kind != OutcomeNone
}

// Marker returns "X" or "O" for a win, PlayerTie for a tie and "" for a game in progress.
func (that Outcome) Marker() string {
	switch that.Kind {
	case OutcomeWin:
		return string(that.Winner)
	case OutcomeTie:
		return PlayerTie
	default:
		return ""
	}
}

func (that Outcome) String() string {
	switch that.Kind {
	case OutcomeWin:
		return "win:" + string(that.Winner)
	case OutcomeTie:
		return "tie"
	default:
		return "none"
	}
}

// ParseOutcome is the inverse of Outcome.Marker.
func ParseOutcome(marker string) (Outcome, error) {
	switch marker {
	case "":
		return NoOutcome, nil
	case PlayerTie:
		return TieOutcome, nil
	case string(PlayerX), string(PlayerO):
		return WinOutcome(Player(marker)), nil
	default:
		return NoOutcome, fmt.Errorf("%w: unknown winner marker %q", apperror.ErrInconsistentState, marker)
	}
}

func (that Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Marker())
}

func (that *Outcome) UnmarshalJSON(data []byte) error {
	var marker string
	if err := json.Unmarshal(data, &marker); err != nil {
		return fmt.Errorf("failed to unmarshal outcome: %w", err)
	}

	outcome, err := ParseOutcome(marker)
	if err != nil {
		return err
	}

	*that = outcome

	return nil
}

// GameState is a point-in-time copy of a game. IsOver is true iff Outcome is terminal.
type GameState struct {
	Board         Board   `json:"board"`
	CurrentPlayer Player  `json:"current_player"`
	Outcome       Outcome `json:"winner"`
	IsOver        bool    `json:"is_over"`
}

// NewGameState returns the fresh configuration: empty board, X to move, no outcome.
func NewGameState() GameState {
	return GameState{
		Board:         Board{},
		CurrentPlayer: PlayerX,
		Outcome:       NoOutcome,
		IsOver:        false,
	}
}
