package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const maxBodyBytes = 1 << 12

type gameUseCase interface {
	State(ctx context.Context, roomID string) (*entity.GameState, error)
	MakeTurn(ctx context.Context, roomID string, move entity.Move) (*entity.GameState, error)
	Reset(ctx context.Context, roomID string) (*entity.GameState, error)
	CloseRoom(ctx context.Context, roomID string) error
}

type handlers struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
}

// moveForm is a move request that may also ask for a reset.
type moveForm struct {
	entity.MoveRequest
	Reset bool `json:"reset,omitempty"`
}

// NewHandler returns the HTTP API of the game rooms.
func NewHandler(logger *slog.Logger, gameUseCase gameUseCase) http.Handler {
	that := &handlers{
		logger:      logger.With("component", "rest"),
		gameUseCase: gameUseCase,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /rooms/{room}/game", that.getGame)
	mux.HandleFunc("POST /rooms/{room}/game/move", that.makeMove)
	mux.HandleFunc("POST /rooms/{room}/game/reset", that.resetGame)
	mux.HandleFunc("DELETE /rooms/{room}", that.closeRoom)

	return mux
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	state, err := that.gameUseCase.State(r.Context(), r.PathValue("room"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *handlers) makeMove(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")

	form, err := decodeMoveForm(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	if form.Reset {
		that.reset(w, r, roomID)
		return
	}

	move, err := form.ToMove()
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	state, err := that.gameUseCase.MakeTurn(r.Context(), roomID, move)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *handlers) resetGame(w http.ResponseWriter, r *http.Request) {
	that.reset(w, r, r.PathValue("room"))
}

func (that *handlers) reset(w http.ResponseWriter, r *http.Request, roomID string) {
	state, err := that.gameUseCase.Reset(r.Context(), roomID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *handlers) closeRoom(w http.ResponseWriter, r *http.Request) {
	if err := that.gameUseCase.CloseRoom(r.Context(), r.PathValue("room")); err != nil {
		that.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeMoveForm reads a JSON body or form fields row, col, move and reset.
func decodeMoveForm(w http.ResponseWriter, r *http.Request) (moveForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var form moveForm

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return form, fmt.Errorf("%w: %w", apperror.ErrMalformedMove, err)
		}

		return form, nil
	}

	if err := r.ParseForm(); err != nil {
		return form, fmt.Errorf("%w: %w", apperror.ErrMalformedMove, err)
	}

	form.Move = r.PostForm.Get("move")

	if raw := r.PostForm.Get("reset"); raw != "" {
		form.Reset = raw == "on" || parseBool(raw)
	}

	var err error
	if form.Row, err = formInt(r, "row"); err != nil {
		return form, err
	}

	if form.Col, err = formInt(r, "col"); err != nil {
		return form, err
	}

	return form, nil
}

func formInt(r *http.Request, key string) (*int, error) {
	raw := r.PostForm.Get(key)
	if raw == "" {
		return nil, nil //nolint: nilnil // an absent field is not an error
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", apperror.ErrMalformedMove, key, raw)
	}

	return &value, nil
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}

func (that *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrMalformedMove),
		errors.Is(err, apperror.ErrInvalidCoordinate),
		errors.Is(err, apperror.ErrInvalidRoomID):
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		that.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
