package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/config"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/server"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/utils"
)

// HandleConnection manages a single WebSocket connection
func HandleConnection(conn *websocket.Conn, connManager *ConnectionManager, sessionManager *server.SessionManager) {
	defer conn.Close()

	// Set read deadline to detect stale connections; pongs push it out
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Keep-alive pinger. WriteControl is safe alongside the data writes,
	// so it needs no write mutex.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	var currentUserID int64
	var currentUsername string
	isAuthenticated := false

	for {
		var message models.ClientMessage
		err := conn.ReadJSON(&message)
		if err != nil {
			if isAuthenticated {
				log.Printf("[WS] Connection closed for user %d (%s): %v", currentUserID, currentUsername, err)
				connManager.RemoveConnection(currentUserID, conn)
				HandleDisconnect(currentUserID, connManager, sessionManager)
			} else {
				log.Printf("[WS] Unauthenticated connection closed: %v", err)
			}
			break
		}

		// Validate JWT from every message. Once the connection is
		// registered, all writes go through the manager's per-connection
		// mutex; only pre-auth replies may write directly.
		if message.JWT == "" {
			if isAuthenticated {
				connManager.SendMessage(currentUserID, models.ServerMessage{
					Type:    "not_authenticated",
					Message: "JWT token required",
				})
			} else {
				SendErrorMessage(conn, "not_authenticated", "JWT token required")
			}
			continue
		}

		// On first authentication, register connection
		if !isAuthenticated {
			// First message also checks that the session behind the
			// token is still active, later messages only the signature
			claims, err := utils.ValidateJWTWithSession(message.JWT)
			if err != nil {
				SendErrorMessage(conn, "invalid_token", "Invalid or expired session")
				log.Printf("[WS] Session validation failed: %v", err)
				continue
			}

			currentUserID = claims.UserID
			currentUsername = claims.Username
			isAuthenticated = true

			// Check for existing connection (multi-device handling)
			if _, exists := connManager.GetConnection(currentUserID); exists {
				log.Printf("[WS] User %d (%s) connecting from new device, disconnecting old session", currentUserID, currentUsername)
				connManager.DisconnectUser(currentUserID, "Logged in from another device")
			}

			if err := connManager.AddConnection(currentUserID, currentUsername, conn); err != nil {
				log.Printf("[WS] Failed to register connection for user %d: %v", currentUserID, err)
				SendErrorMessage(conn, "connection_failed", "Could not register connection")
				return
			}
			log.Printf("[WS] User %d (%s) authenticated and connected", currentUserID, currentUsername)
		} else {
			claims, err := utils.ValidateJWT(message.JWT)
			if err != nil {
				connManager.SendMessage(currentUserID, models.ServerMessage{
					Type:    "invalid_token",
					Message: "Invalid or expired JWT token",
				})
				log.Printf("[WS] JWT validation failed: %v", err)
				continue
			}

			// Verify JWT claims match current user
			if claims.UserID != currentUserID {
				connManager.SendMessage(currentUserID, models.ServerMessage{
					Type:    "token_mismatch",
					Message: "JWT token does not match current user",
				})
				continue
			}
		}

		// Route message to appropriate handler
		HandleWebSocket(message, connManager, sessionManager, currentUserID, currentUsername)
	}
}

// HandleWebSocket routes messages to appropriate handlers
func HandleWebSocket(message models.ClientMessage, connManager *ConnectionManager, sessionManager *server.SessionManager, userID int64, username string) {
	switch message.Type {
	case "start_game":
		HandleStartGame(message, userID, username, connManager, sessionManager)
	case "move":
		HandleMove(message, userID, sessionManager, connManager)
	case "hint":
		HandleHint(userID, sessionManager, connManager)
	case "resign":
		HandleResign(userID, sessionManager, connManager)
	case "reconnect":
		HandleReconnect(message, userID, sessionManager, connManager)
	default:
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "unknown_message_type",
			Message: "Unknown message type",
		})
	}
}

// HandleStartGame creates a fresh game session for the user
func HandleStartGame(message models.ClientMessage, userID int64, username string, connManager *ConnectionManager, sessionManager *server.SessionManager) {
	mode, ok := models.ParseGameMode(message.Mode)
	if !ok {
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "invalid_mode",
			Message: "Game mode must be \"bot\" or \"local\"",
		})
		return
	}

	// A player runs at most one game at a time
	if sessionManager.HasActiveGame(userID) {
		session, _ := sessionManager.GetSessionByUserID(userID)
		if session != nil {
			log.Printf("[GAME] User %d (%s) has active game %s - terminating it", userID, username, session.GameID)

			err := session.TerminateByAbandonment(connManager)
			if err != nil {
				log.Printf("[GAME] Failed to terminate user's session: %v", err)
			}

			sessionManager.RemoveSession(session.GameID)
		}
	}

	session := sessionManager.CreateSession(userID, username, mode, message.Difficulty, connManager)
	log.Printf("[GAME] User %d (%s) started %s game %s", userID, username, mode, session.GameID)
}

// HandleMove handles a game move
func HandleMove(message models.ClientMessage, userID int64, sessionManager *server.SessionManager, connManager *ConnectionManager) {
	session, exists := sessionManager.GetSessionByUserID(userID)
	if !exists {
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "no_active_game",
			Message: "No active game found",
		})
		return
	}

	err := session.HandleMove(userID, message.Cell, connManager)
	if err != nil {
		log.Printf("[MOVE] Error handling move for user %d: %v", userID, err)
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "invalid_move",
			Message: err.Error(),
		})
		return
	}
}

// HandleHint asks the session's advisor for the strongest move
func HandleHint(userID int64, sessionManager *server.SessionManager, connManager *ConnectionManager) {
	session, exists := sessionManager.GetSessionByUserID(userID)
	if !exists {
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "no_active_game",
			Message: "No active game found",
		})
		return
	}

	err := session.HandleHint(userID, connManager)
	if err != nil {
		log.Printf("[HINT] Error handling hint for user %d: %v", userID, err)
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "hint_failed",
			Message: err.Error(),
		})
		return
	}
}

// HandleResign ends the game with the resigning player's opponent as winner
func HandleResign(userID int64, sessionManager *server.SessionManager, connManager *ConnectionManager) {
	session, exists := sessionManager.GetSessionByUserID(userID)
	if !exists {
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "no_active_game",
			Message: "No active game found",
		})
		return
	}

	err := session.HandleResign(userID, connManager, sessionManager)
	if err != nil {
		log.Printf("[RESIGN] Error handling resign for user %d: %v", userID, err)
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "resign_failed",
			Message: err.Error(),
		})
		return
	}
}

// HandleReconnect handles a player reconnecting to their game
func HandleReconnect(message models.ClientMessage, userID int64, sessionManager *server.SessionManager, connManager *ConnectionManager) {
	log.Printf("[RECONNECT] User %d attempting to reconnect", userID)

	var gameID string
	var session *server.GameSession
	var isPlayer bool

	// If gameID not provided, try to find user's active game
	if message.GameID == "" {
		log.Printf("[RECONNECT] No gameID provided, looking up user %d's active game", userID)
		session, isPlayer = sessionManager.GetSessionByUserID(userID)
		if !isPlayer {
			connManager.SendMessage(userID, models.ServerMessage{
				Type:    "no_active_game",
				Message: "No active game found. Please start a new game.",
			})
			return
		}
		gameID = session.GameID
		log.Printf("[RECONNECT] Found active game %s for user %d", gameID, userID)
	} else {
		// GameID provided, validate it
		gameID = message.GameID
		session, isPlayer = sessionManager.GetSessionByGameIDAndUserID(gameID, userID)
		if !isPlayer {
			// Check if game exists at all
			sessionByID, exists := sessionManager.GetSessionByGameID(gameID)
			if !exists {
				// Game doesn't exist - likely finished and removed
				connManager.SendMessage(userID, models.ServerMessage{
					Type:    "game_finished",
					Message: "This game has already ended",
				})
				return
			}

			// Game exists but user is not a player
			if sessionByID.IsFinished() {
				connManager.SendMessage(userID, models.ServerMessage{
					Type:    "game_finished",
					Message: "This game has already ended",
				})
			} else {
				connManager.SendMessage(userID, models.ServerMessage{
					Type:    "not_in_game",
					Message: "You are not a player in this game",
				})
			}
			return
		}
	}

	// Check if game is finished
	if session.IsFinished() {
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "game_finished",
			Message: "This game has already finished",
		})
		return
	}

	// Handle reconnection
	err := session.HandleReconnect(userID, connManager)
	if err != nil {
		log.Printf("[RECONNECT] Error reconnecting user %d: %v", userID, err)
		connManager.SendMessage(userID, models.ServerMessage{
			Type:    "reconnect_failed",
			Message: err.Error(),
		})
		return
	}

	log.Printf("[RECONNECT] User %d successfully reconnected to game %s", userID, gameID)
}

// HandleDisconnect handles player disconnection
func HandleDisconnect(userID int64, connManager *ConnectionManager, sessionManager *server.SessionManager) {
	session, exists := sessionManager.GetSessionByUserID(userID)
	if !exists {
		log.Printf("[DISCONNECT] User %d disconnected (no active game)", userID)
		return
	}

	err := session.HandleDisconnect(userID, connManager, sessionManager)
	if err != nil {
		log.Printf("[DISCONNECT] Error handling disconnect for user %d: %v", userID, err)
	}
}

// SendErrorMessage sends an error message to a connection
func SendErrorMessage(conn *websocket.Conn, errorType, message string) {
	conn.WriteJSON(models.ServerMessage{
		Type:    errorType,
		Message: message,
	})
}

// CreateUpgrader creates a WebSocket upgrader that only accepts
// configured origins
func CreateUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // Non-browser clients send no Origin header
			}
			for _, allowed := range config.AppConfig.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
