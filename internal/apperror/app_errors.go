package apperror

import "errors"

var (
	ErrInvalidCoordinate = errors.New("coordinate is out of board range")
	ErrMalformedMove     = errors.New("malformed move")
	ErrInconsistentState = errors.New("board state is not reachable by legal play")
	ErrGameNotFound      = errors.New("game not found")
	ErrInvalidRoomID     = errors.New("room id is empty")
)
