package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type memoryGame struct {
	mu    sync.RWMutex
	games map[string]entity.GameState
}

// NewMemoryGameRepository returns a process-local repository. It keeps copies of the
// stored states, so callers can keep modifying their values.
func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]entity.GameState),
	}
}

func (that *memoryGame) CreateOrUpdate(_ context.Context, roomID string, state *entity.GameState) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[roomID] = *state

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, roomID string) (*entity.GameState, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	state, ok := that.games[roomID]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return &state, nil
}

func (that *memoryGame) DeleteByID(_ context.Context, roomID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[roomID]; !ok {
		return apperror.ErrGameNotFound
	}

	delete(that.games, roomID)

	return nil
}
