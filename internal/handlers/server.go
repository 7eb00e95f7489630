// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
)

// Server owns the engine and the live WebSocket connections, keyed by user
// id. It implements game.Broadcaster: the engine hands it per-player views
// and it writes them to whoever is connected.
type Server struct {
	Engine *game.Engine
	Logger *logrus.Logger

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Logger: logger,
		conns:  make(map[string]*websocket.Conn),
	}
}

// register binds a user's connection, closing any previous one. Only one
// socket per user.
func (srv *Server) register(userID string, c *websocket.Conn) {
	srv.mu.Lock()
	prev := srv.conns[userID]
	srv.conns[userID] = c
	srv.mu.Unlock()
	if prev != nil {
		prev.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
	}
}

// unregister drops the mapping only if it still points at c, so a reconnect
// that already replaced the socket is not clobbered.
func (srv *Server) unregister(userID string, c *websocket.Conn) {
	srv.mu.Lock()
	if srv.conns[userID] == c {
		delete(srv.conns, userID)
	}
	srv.mu.Unlock()
}

// PublishToPlayer sends a filtered game view to one player. Called while the
// engine holds the room lock, so the write happens asynchronously.
func (srv *Server) PublishToPlayer(playerID string, view *game.PlayerView) {
	srv.mu.Lock()
	c := srv.conns[playerID]
	srv.mu.Unlock()
	if c == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":  "game_state",
		"state": view,
	})
	if err != nil {
		srv.Logger.Errorf("failed to marshal game view for player %s: %v", playerID, err)
		return
	}
	go srv.write(c, playerID, data)
}

// NotifyRemoved tells one player they were taken out of the game and closes
// their socket.
func (srv *Server) NotifyRemoved(playerID, reason string) {
	srv.mu.Lock()
	c := srv.conns[playerID]
	delete(srv.conns, playerID)
	srv.mu.Unlock()
	if c == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":   "removed",
		"reason": reason,
	})
	if err == nil {
		srv.write(c, playerID, data)
	}
	c.Close(websocket.StatusNormalClosure, "removed from game")
}

func (srv *Server) write(c *websocket.Conn, playerID string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		srv.Logger.Warnf("failed to write message to player %s: %v", playerID, err)
	}
}
