// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/auth"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/middleware"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

// GameMessage is the envelope for inbound game actions.
type GameMessage struct {
	Type string `json:"type"`

	// Card is the card being played, for play_card and play_drawn_card.
	Card *models.Card `json:"card,omitempty"`

	// DemandRank accompanies a jack, DemandSuit an ace.
	DemandRank models.Rank `json:"demandRank,omitempty"`
	DemandSuit models.Suit `json:"demandSuit,omitempty"`
}

// GameWSHandler upgrades the connection, authenticates the user from the
// auth_token cookie, registers the socket, and runs the read loop. When the
// loop exits the player is handed to the engine's leave path so a bot can
// take over their seat.
func GameWSHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "client must use the 'game' subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		userID, err := auth.AuthenticateJWT(token)
		if err != nil {
			logger.Warnf("WebSocket auth failed from %s: %v", r.RemoteAddr, err)
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}

		srv.register(userID, c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readErr := readGameMessages(ctx, c, srv, userID, logger)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)

		srv.unregister(userID, c)

		// The socket is gone; let a bot take the seat if a game is running.
		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer leaveCancel()
		if err := srv.Engine.HandlePlayerLeave(leaveCtx, userID); err != nil {
			logger.Warnf("leave handling failed for user %s: %v", userID, err)
		}
	}
}

// readGameMessages reads client messages and routes them to engine
// operations until the connection closes or the context ends.
func readGameMessages(ctx context.Context, c *websocket.Conn, srv *Server, userID string, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid JSON from user %s: %v", userID, err)
			sendWsError(ctx, c, logger, "invalid JSON format")
			continue
		}

		logger.Debugf("received action %q from user %s", msg.Type, userID)

		opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		var opErr error
		switch msg.Type {
		case "draw_card":
			opErr = srv.Engine.DrawCard(opCtx, userID)
		case "play_card":
			if msg.Card == nil {
				opErr = fmt.Errorf("%w: missing card", game.ErrInvalidMove)
				break
			}
			opErr = srv.Engine.PlayCard(opCtx, userID, game.PlayRequest{
				Card:       *msg.Card,
				DemandRank: msg.DemandRank,
				DemandSuit: msg.DemandSuit,
			})
		case "play_drawn_card":
			opErr = srv.Engine.PlayDrawnCard(opCtx, userID, game.PlayRequest{
				DemandRank: msg.DemandRank,
				DemandSuit: msg.DemandSuit,
			})
		case "skip_drawn_card":
			opErr = srv.Engine.SkipDrawnCard(opCtx, userID)
		case "accept_effect":
			opErr = srv.Engine.AcceptEffect(opCtx, userID)
		case "ping":
			sendWsMessage(ctx, c, logger, map[string]string{"type": "pong"})
		default:
			sendWsError(ctx, c, logger, fmt.Sprintf("unknown action type: %s", msg.Type))
		}
		cancel()

		if opErr != nil {
			logger.Debugf("action %q from user %s rejected: %v", msg.Type, userID, opErr)
			sendWsError(ctx, c, logger, wsErrorMessage(opErr))
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// wsErrorMessage maps engine errors to client-facing strings.
func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrNotAuthenticated):
		return "not authenticated"
	case errors.Is(err, game.ErrSessionNotFound):
		return "no active game"
	case errors.Is(err, game.ErrTurnViolation):
		return "not your turn"
	case errors.Is(err, game.ErrNoCardsLeft):
		return "no cards left to draw"
	case errors.Is(err, game.ErrInvalidMove):
		return err.Error()
	default:
		return "internal error"
	}
}

// sendWsMessage marshals and writes a message with its own write deadline.
func sendWsMessage(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("failed to marshal WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logger.Warnf("failed to write WebSocket message: %v", err)
		}
	}
}

func sendWsError(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, errorMsg string) {
	sendWsMessage(ctx, c, logger, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
