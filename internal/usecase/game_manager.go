package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, roomID string, state *entity.GameState) error
	GetByID(ctx context.Context, roomID string) (*entity.GameState, error)
	DeleteByID(ctx context.Context, roomID string) error
}

// StateListener is notified after every applied move or reset of a room, in the order the
// changes happened.
type StateListener interface {
	GameChanged(roomID string, state entity.GameState)
}

// room serializes apply-and-persist so snapshots reach the repository in move order.
// engine is nil until the room is loaded. A closed room is never used again.
type room struct {
	mu     sync.Mutex
	engine *tictactoe.Engine
	closed bool

	updates updateQueue
}

// updateQueue hands a room's changes to the listeners in order, outside the room lock.
type updateQueue struct {
	mu       sync.Mutex
	pending  []entity.GameState
	draining bool
}

// GameManager hosts one engine per room and mirrors every change into the repository.
// The in-memory engine stays authoritative when a write to the repository fails.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo

	roomsMutex sync.Mutex
	rooms      map[string]*room

	listenersMutex sync.RWMutex
	listeners      []StateListener
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		rooms:    make(map[string]*room),
	}
}

func (that *GameManager) AddListener(listener StateListener) {
	that.listenersMutex.Lock()
	defer that.listenersMutex.Unlock()

	that.listeners = append(that.listeners, listener)
}

// State returns the snapshot of the room, starting a game if the room is new.
func (that *GameManager) State(ctx context.Context, roomID string) (*entity.GameState, error) {
	gameRoom, err := that.lockRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer gameRoom.mu.Unlock()

	state := gameRoom.engine.Snapshot()

	return &state, nil
}

// MakeTurn applies the move for the current player of the room. Illegal moves leave the
// game unchanged and return the current snapshot without error.
func (that *GameManager) MakeTurn(ctx context.Context, roomID string, move entity.Move) (*entity.GameState, error) {
	log := that.logger.With("method", "MakeTurn", "roomID", roomID, "move", move.String())

	gameRoom, err := that.lockRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer gameRoom.mu.Unlock()

	if !gameRoom.engine.ApplyMove(move.Row, move.Col) {
		log.Debug("move ignored")

		state := gameRoom.engine.Snapshot()
		return &state, nil
	}

	state := gameRoom.engine.Snapshot()

	// listeners follow the engine even when the write fails
	that.publish(roomID, gameRoom, state)

	if err = that.updateGame(ctx, roomID, &state); err != nil {
		return nil, err
	}

	if state.IsOver {
		log.Info("game finished", "winner", state.Outcome.Marker())
	}

	return &state, nil
}

// Reset starts a new game in the room.
func (that *GameManager) Reset(ctx context.Context, roomID string) (*entity.GameState, error) {
	gameRoom, err := that.lockRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer gameRoom.mu.Unlock()

	gameRoom.engine.Reset()

	state := gameRoom.engine.Snapshot()
	that.publish(roomID, gameRoom, state)

	if err = that.updateGame(ctx, roomID, &state); err != nil {
		return nil, err
	}

	that.logger.Info("game reset", "roomID", roomID)

	return &state, nil
}

// CloseRoom forgets the room and deletes its snapshot. It returns apperror.ErrGameNotFound
// when the room is neither hosted nor stored. Moves already holding the room finish and are
// stored before the snapshot is deleted; later calls start a new game.
func (that *GameManager) CloseRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return apperror.ErrInvalidRoomID
	}

	gameRoom := that.acquireRoom(roomID)
	defer gameRoom.mu.Unlock()

	hosted := gameRoom.engine != nil
	gameRoom.closed = true

	// the room leaves the map only after the delete, so nobody loads the old snapshot
	defer that.removeRoom(roomID, gameRoom)

	err := that.gameRepo.DeleteByID(ctx, roomID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		if hosted {
			return nil
		}

		return fmt.Errorf("room %s: %w", roomID, err)
	}

	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	return nil
}

// lockRoom returns the loaded room locked for the caller, who must unlock it.
func (that *GameManager) lockRoom(ctx context.Context, roomID string) (*room, error) {
	if roomID == "" {
		return nil, apperror.ErrInvalidRoomID
	}

	gameRoom := that.acquireRoom(roomID)
	if gameRoom.engine != nil {
		return gameRoom, nil
	}

	engine, err := that.loadEngine(ctx, roomID)
	if err != nil {
		gameRoom.closed = true
		that.removeRoom(roomID, gameRoom)
		gameRoom.mu.Unlock()

		return nil, err
	}

	gameRoom.engine = engine

	return gameRoom, nil
}

// acquireRoom locks the room hosted under roomID, adding an unloaded one when there is none.
// A room closed while waiting for its lock is skipped in favor of its successor.
func (that *GameManager) acquireRoom(roomID string) *room {
	for {
		that.roomsMutex.Lock()
		gameRoom, ok := that.rooms[roomID]
		if !ok {
			gameRoom = &room{}
			that.rooms[roomID] = gameRoom
		}
		that.roomsMutex.Unlock()

		gameRoom.mu.Lock()
		if !gameRoom.closed {
			return gameRoom
		}
		gameRoom.mu.Unlock()
	}
}

func (that *GameManager) removeRoom(roomID string, gameRoom *room) {
	that.roomsMutex.Lock()
	defer that.roomsMutex.Unlock()

	if that.rooms[roomID] == gameRoom {
		delete(that.rooms, roomID)
	}
}

// loadEngine restores the room from its stored snapshot, or starts a fresh game.
func (that *GameManager) loadEngine(ctx context.Context, roomID string) (*tictactoe.Engine, error) {
	log := that.logger.With("method", "loadEngine", "roomID", roomID)

	state, err := that.gameRepo.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		log.Debug("no stored game, starting a new one")
		return tictactoe.New(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	engine, err := tictactoe.Restore(state.Board)
	if err != nil {
		log.Warn("discarding stored game", "error", err)
		return tictactoe.New(), nil
	}

	log.Debug("game restored")

	return engine, nil
}

func (that *GameManager) updateGame(ctx context.Context, roomID string, state *entity.GameState) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, roomID, state); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

// publish queues the change for the listeners. It is called with the room locked, so the
// queue holds the room's changes in the order they happened.
func (that *GameManager) publish(roomID string, gameRoom *room, state entity.GameState) {
	queue := &gameRoom.updates

	queue.mu.Lock()
	defer queue.mu.Unlock()

	queue.pending = append(queue.pending, state)
	if !queue.draining {
		queue.draining = true
		go that.drain(roomID, queue)
	}
}

func (that *GameManager) drain(roomID string, queue *updateQueue) {
	for {
		queue.mu.Lock()
		if len(queue.pending) == 0 {
			queue.draining = false
			queue.mu.Unlock()

			return
		}

		state := queue.pending[0]
		queue.pending = queue.pending[1:]
		queue.mu.Unlock()

		that.notify(roomID, state)
	}
}

func (that *GameManager) notify(roomID string, state entity.GameState) {
	that.listenersMutex.RLock()
	defer that.listenersMutex.RUnlock()

	for _, listener := range that.listeners {
		listener.GameChanged(roomID, state)
	}
}
