// internal/handlers/room.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/auth"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

// RoomSeeder persists a fresh session and the user-to-room mappings that the
// engine later resolves players through.
type RoomSeeder interface {
	SaveSession(ctx context.Context, s *models.GameState) error
	SetRoom(ctx context.Context, userID, roomID string) error
}

type roomPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type createRoomRequest struct {
	RoomID  string       `json:"roomId"`
	Players []roomPlayer `json:"players"`
}

type createRoomResponse struct {
	RoomID   string `json:"roomId"`
	ResultID string `json:"resultId"`
}

// CreateRoomHandler seeds a waiting session for a set of players. The lobby
// service calls this once matchmaking settles; the engine takes over when
// the start endpoint fires.
func CreateRoomHandler(logger *logrus.Logger, seeder RoomSeeder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if len(req.Players) < 2 {
			http.Error(w, "at least two players required", http.StatusBadRequest)
			return
		}

		roomID := req.RoomID
		if roomID == "" {
			roomID = uuid.NewString()
		}

		order := make([]models.Participant, 0, len(req.Players))
		for _, p := range req.Players {
			if p.ID == "" {
				http.Error(w, "player id required", http.StatusBadRequest)
				return
			}
			order = append(order, models.Participant{ID: p.ID})
		}

		s := models.NewGameState(roomID, order)
		s.ResultID = uuid.NewString()
		for _, p := range req.Players {
			s.Usernames[p.ID] = p.Username
			s.Avatars[p.ID] = p.Avatar
		}

		ctx := r.Context()
		if err := seeder.SaveSession(ctx, s); err != nil {
			logger.Errorf("failed to seed session for room %s: %v", roomID, err)
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}
		for _, p := range req.Players {
			if err := seeder.SetRoom(ctx, p.ID, roomID); err != nil {
				logger.Errorf("failed to map user %s to room %s: %v", p.ID, roomID, err)
				http.Error(w, "failed to create room", http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(createRoomResponse{RoomID: roomID, ResultID: s.ResultID})
	}
}

type roomActionRequest struct {
	RoomID string `json:"roomId"`
}

// StartGameHandler deals hands, flips the opening card, and kicks off the
// first turn for a seeded room.
func StartGameHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := decodeRoomAction(w, r)
		if !ok {
			return
		}
		if err := srv.Engine.InitializeGameAfterStart(r.Context(), roomID); err != nil {
			if errors.Is(err, game.ErrSessionNotFound) {
				http.Error(w, "room not found", http.StatusNotFound)
				return
			}
			logger.Errorf("failed to start game in room %s: %v", roomID, err)
			http.Error(w, "failed to start game", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// ForceEndHandler terminates a running game immediately, scoring hands as
// they stand. Requires a valid auth token.
func ForceEndHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		if _, err := auth.AuthenticateJWT(token); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		roomID, ok := decodeRoomAction(w, r)
		if !ok {
			return
		}
		if err := srv.Engine.ForceEndGame(r.Context(), roomID); err != nil {
			if errors.Is(err, game.ErrSessionNotFound) {
				http.Error(w, "room not found", http.StatusNotFound)
				return
			}
			logger.Errorf("failed to force-end game in room %s: %v", roomID, err)
			http.Error(w, "failed to end game", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func decodeRoomAction(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req roomActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return "", false
	}
	return req.RoomID, true
}
