package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	maxMessageBytes = 1 << 12
)

type gameUseCase interface {
	State(ctx context.Context, roomID string) (*entity.GameState, error)
	MakeTurn(ctx context.Context, roomID string, move entity.Move) (*entity.GameState, error)
	Reset(ctx context.Context, roomID string) (*entity.GameState, error)
}

type handlerFunc func(ctx context.Context, client *client, message *Message) error

// client is one connection subscribed to a room.
type client struct {
	id     string
	roomID string
	conn   *websocket.Conn

	writeMutex sync.Mutex
}

func (that *client) send(message Message) error {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc

	connectionsMutex sync.RWMutex
	connections      map[string]map[string]*client
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers:    make(map[string]handlerFunc),
		connections: make(map[string]map[string]*client),
	}

	server.handlers[actionGameState] = server.handleGameState
	server.handlers[actionGameMove] = server.handleGameMove
	server.handlers[actionGameReset] = server.handleGameReset

	return server
}

// Handler returns the HTTP handler serving /ws?room=<id>.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
		that.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// GameChanged pushes the new state to every connection of the room.
func (that *Server) GameChanged(roomID string, state entity.GameState) {
	that.broadcast(roomID, actionGameState, Payload{Game: &state})
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	roomID := req.URL.Query().Get("room")
	if roomID == "" {
		http.Error(writer, "room is required", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn.SetReadLimit(maxMessageBytes)

	gameClient := &client{
		id:     uuid.NewString(),
		roomID: roomID,
		conn:   conn,
	}

	that.register(gameClient)
	defer that.unregister(gameClient)

	log = log.With("roomID", roomID, "clientID", gameClient.id)
	log.Info("WebSocket connection established")

	// the new client starts from the current state of the room
	if err = that.handleGameState(ctx, gameClient, &Message{Action: actionGameState}); err != nil {
		log.Error("failed to send initial state", "error", err)
		return
	}

	that.handleMessages(ctx, gameClient)
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, gameClient *client) {
	log := that.logger.With("method", "handleMessages", "clientID", gameClient.id)

	for {
		var message Message
		if err := gameClient.conn.ReadJSON(&message); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				_ = that.sendError(gameClient, "", "malformed message")
				continue
			}

			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			_ = that.sendError(gameClient, message.Action, "unknown action")
			continue
		}

		if err := handler(ctx, gameClient, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) register(gameClient *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	room, ok := that.connections[gameClient.roomID]
	if !ok {
		room = make(map[string]*client)
		that.connections[gameClient.roomID] = room
	}

	room[gameClient.id] = gameClient
}

func (that *Server) unregister(gameClient *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if room, ok := that.connections[gameClient.roomID]; ok {
		delete(room, gameClient.id)

		if len(room) == 0 {
			delete(that.connections, gameClient.roomID)
		}
	}

	_ = gameClient.conn.Close()

	that.logger.Info("client disconnected", "roomID", gameClient.roomID, "clientID", gameClient.id)
}

func (that *Server) closeAll() {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	for _, room := range that.connections {
		for _, gameClient := range room {
			_ = gameClient.conn.Close()
		}
	}
}

// roomClients returns a copy of the room's connections so writes happen without the lock.
func (that *Server) roomClients(roomID string) []*client {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	clients := make([]*client, 0, len(that.connections[roomID]))
	for _, gameClient := range that.connections[roomID] {
		clients = append(clients, gameClient)
	}

	return clients
}
