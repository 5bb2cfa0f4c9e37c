package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

// Move is a coordinate pair that has been checked against the board range.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NewMove validates row and col.
func NewMove(row, col int) (Move, error) {
	if !InBounds(row, col) {
		return Move{}, fmt.Errorf("%w: row %d, col %d", apperror.ErrInvalidCoordinate, row, col)
	}

	return Move{Row: row, Col: col}, nil
}

// ParseMove parses a "row,col" payload such as "1,2". Surrounding spaces are ignored.
func ParseMove(raw string) (Move, error) {
	rowPart, colPart, found := strings.Cut(raw, ",")
	if !found {
		return Move{}, fmt.Errorf("%w: %q is not a row,col pair", apperror.ErrMalformedMove, raw)
	}

	row, err := strconv.Atoi(strings.TrimSpace(rowPart))
	if err != nil {
		return Move{}, fmt.Errorf("%w: row %q", apperror.ErrMalformedMove, rowPart)
	}

	col, err := strconv.Atoi(strings.TrimSpace(colPart))
	if err != nil {
		return Move{}, fmt.Errorf("%w: col %q", apperror.ErrMalformedMove, colPart)
	}

	return NewMove(row, col)
}

func (that Move) String() string {
	return strconv.Itoa(that.Row) + "," + strconv.Itoa(that.Col)
}

// MoveRequest is the wire form of a move: either Row and Col, or Move as "row,col".
type MoveRequest struct {
	Row  *int   `json:"row,omitempty"`
	Col  *int   `json:"col,omitempty"`
	Move string `json:"move,omitempty"`
}

// ToMove validates the request. Move takes precedence over Row and Col.
func (that MoveRequest) ToMove() (Move, error) {
	if that.Move != "" {
		return ParseMove(that.Move)
	}

	if that.Row == nil || that.Col == nil {
		return Move{}, fmt.Errorf("%w: row and col are required", apperror.ErrMalformedMove)
	}

	return NewMove(*that.Row, *that.Col)
}
