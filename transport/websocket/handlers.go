package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

func (that *Server) handleGameState(ctx context.Context, gameClient *client, msg *Message) error {
	state, err := that.gameUseCase.State(ctx, gameClient.roomID)
	if err != nil {
		_ = that.sendError(gameClient, msg.Action, "failed to get the game")
		return fmt.Errorf("failed to get game state: %w", err)
	}

	return that.sendMessage(gameClient, actionGameState, Payload{Game: state})
}

// handleGameMove applies the move and acknowledges with the resulting state. When the move
// changed the game every connection of the room also receives game:state.
func (that *Server) handleGameMove(ctx context.Context, gameClient *client, msg *Message) error {
	var request entity.MoveRequest
	if err := json.Unmarshal(msg.Payload, &request); err != nil {
		return that.sendError(gameClient, msg.Action, "malformed move")
	}

	move, err := request.ToMove()
	if err != nil {
		return that.sendError(gameClient, msg.Action, err.Error())
	}

	state, err := that.gameUseCase.MakeTurn(ctx, gameClient.roomID, move)
	if err != nil {
		_ = that.sendError(gameClient, msg.Action, "failed to make turn")
		return fmt.Errorf("failed to make turn: %w", err)
	}

	return that.sendMessage(gameClient, msg.Action, Payload{Game: state})
}

func (that *Server) handleGameReset(ctx context.Context, gameClient *client, msg *Message) error {
	state, err := that.gameUseCase.Reset(ctx, gameClient.roomID)
	if err != nil {
		_ = that.sendError(gameClient, msg.Action, "failed to reset the game")
		return fmt.Errorf("failed to reset game: %w", err)
	}

	return that.sendMessage(gameClient, msg.Action, Payload{Game: state})
}

func (that *Server) broadcast(roomID, action string, payload Payload) {
	log := that.logger.With("method", "broadcast", "roomID", roomID)

	for _, gameClient := range that.roomClients(roomID) {
		if err := that.sendMessage(gameClient, action, payload); err != nil {
			log.Error("failed to send game update", "clientID", gameClient.id, "error", err)
		}
	}
}

func (that *Server) sendMessage(gameClient *client, action string, payload Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = gameClient.send(Message{Action: action, Payload: payloadJSON}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) sendError(gameClient *client, action, errorMsg string) error {
	if err := that.sendMessage(gameClient, action, Payload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
