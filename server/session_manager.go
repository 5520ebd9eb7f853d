package server

import (
	"fmt"
	"log"
	"sync"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
)

type SessionManager struct {
	Session    map[string]*GameSession // gameID -> GameSession
	UserToGame map[int64]string        // userID -> gameID (for quick lookup)
	Mux        *sync.Mutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		Session:    make(map[string]*GameSession),
		UserToGame: make(map[int64]string),
		Mux:        &sync.Mutex{},
	}
}

func (sm *SessionManager) CreateSession(hostID int64, hostUsername string, mode models.GameMode, difficulty string, conn ConnectionManagerInterface) *GameSession {
	sm.Mux.Lock()
	defer sm.Mux.Unlock()

	session := NewGameSession(hostID, hostUsername, mode, difficulty, conn)
	sm.Session[session.GameID] = session
	sm.UserToGame[hostID] = session.GameID

	log.Printf("[SESSION] Created %s session %s: %s (ID: %d) vs %s",
		mode, session.GameID, hostUsername, hostID, session.OpponentName)
	return session
}

func (sm *SessionManager) GetSessionByUserID(userID int64) (*GameSession, bool) {
	sm.Mux.Lock()
	defer sm.Mux.Unlock()

	gameID, exists := sm.UserToGame[userID]
	if !exists {
		return nil, false
	}

	session, exists := sm.Session[gameID]
	return session, exists
}

func (sm *SessionManager) GetSessionByGameID(gameID string) (*GameSession, bool) {
	sm.Mux.Lock()
	defer sm.Mux.Unlock()

	session, exists := sm.Session[gameID]
	return session, exists
}

func (sm *SessionManager) GetSessionByGameIDAndUserID(gameID string, userID int64) (*GameSession, bool) {
	sm.Mux.Lock()
	defer sm.Mux.Unlock()

	session, exists := sm.Session[gameID]
	if !exists {
		return nil, false
	}

	if session.HostID == userID {
		return session, true
	}

	return nil, false
}

func (sm *SessionManager) RemoveSession(gameID string) error {
	sm.Mux.Lock()
	defer sm.Mux.Unlock()

	session, exists := sm.Session[gameID]
	if !exists {
		return fmt.Errorf("session not found")
	}

	log.Printf("[SESSION] Removing session %s", gameID)

	// The user may already be mapped to a newer game
	if sm.UserToGame[session.HostID] == gameID {
		delete(sm.UserToGame, session.HostID)
	}

	delete(sm.Session, gameID)

	return nil
}

func (sm *SessionManager) HasActiveGame(userID int64) bool {
	sm.Mux.Lock()
	defer sm.Mux.Unlock()

	gameID, exists := sm.UserToGame[userID]
	if !exists {
		return false
	}

	session, exists := sm.Session[gameID]
	if !exists {
		delete(sm.UserToGame, userID)
		return false
	}

	return !session.IsFinished()
}
