package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
)

// Connection holds a WebSocket connection with its username
type Connection struct {
	Username   string
	Conn       *websocket.Conn
	WriteMutex *sync.Mutex
}

// ConnectionManager manages websocket connections by user ID
type ConnectionManager struct {
	connections map[int64]*Connection
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]*Connection),
	}
}

func (cm *ConnectionManager) AddConnection(userID int64, username string, conn *websocket.Conn) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[userID]; exists {
		return fmt.Errorf("user %d already connected", userID)
	}

	cm.connections[userID] = &Connection{
		Username:   username,
		Conn:       conn,
		WriteMutex: &sync.Mutex{},
	}
	return nil
}

// RemoveConnection drops the registration for userID, but only if it
// still points at conn. A stale read loop exiting after a newer device
// registered must not remove the newer connection.
func (cm *ConnectionManager) RemoveConnection(userID int64, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if existing, ok := cm.connections[userID]; ok && existing.Conn == conn {
		delete(cm.connections, userID)
	}
}

func (cm *ConnectionManager) GetConnection(userID int64) (*websocket.Conn, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	connection, exists := cm.connections[userID]
	if !exists {
		return nil, false
	}
	return connection.Conn, true
}

// DisconnectUser tells the client why and then force-closes its
// connection, if any. Used when the same account signs in from a
// second device.
func (cm *ConnectionManager) DisconnectUser(userID int64, reason string) {
	cm.mu.Lock()
	connection, exists := cm.connections[userID]
	if exists {
		delete(cm.connections, userID)
	}
	cm.mu.Unlock()

	if !exists {
		return
	}

	data, err := json.Marshal(models.ServerMessage{
		Type:    "disconnected",
		Message: reason,
	})
	if err == nil {
		connection.WriteMutex.Lock()
		connection.Conn.WriteMessage(websocket.TextMessage, data)
		connection.WriteMutex.Unlock()
	}

	// Close outside the manager lock, closing can block on the network
	connection.Conn.Close()
}

func (cm *ConnectionManager) SendMessage(userID int64, message models.ServerMessage) error {
	cm.mu.RLock()
	connection, exists := cm.connections[userID]
	cm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("connection for user %d does not exist", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	// Use per-connection write mutex to prevent concurrent writes
	connection.WriteMutex.Lock()
	defer connection.WriteMutex.Unlock()

	return connection.Conn.WriteMessage(websocket.TextMessage, data)
}
