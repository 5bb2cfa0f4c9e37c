package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const gameKeyPrefix = "game:"

// GameRepository stores the latest snapshot of each room.
type GameRepository interface {
	CreateOrUpdate(ctx context.Context, roomID string, state *entity.GameState) error
	GetByID(ctx context.Context, roomID string) (*entity.GameState, error)
	DeleteByID(ctx context.Context, roomID string) error
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository returns a Redis backed repository. A zero ttl keeps snapshots forever.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, roomID string, state *entity.GameState) error {
	gameJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKeyPrefix+roomID, gameJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, roomID string) (*entity.GameState, error) {
	response, err := that.client.Get(ctx, gameKeyPrefix+roomID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var state entity.GameState
	if err = json.Unmarshal([]byte(response), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &state, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, roomID string) error {
	deleted, err := that.client.Del(ctx, gameKeyPrefix+roomID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}
