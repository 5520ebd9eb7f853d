package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/bot"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/config"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/db"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/utils"
)

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type MeResponse struct {
	Token       string `json:"token"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	GamesPlayed int    `json:"games_played"`
	GamesWon    int    `json:"games_won"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// UserDisconnector lets the login flow kick an older device off its
// socket without importing the websocket package.
type UserDisconnector interface {
	DisconnectUser(userID int64, reason string)
}

// HandleSignup handles user registration
func HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate username
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeJSONError(w, "Username is required", http.StatusBadRequest)
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 50 {
		writeJSONError(w, "Username must be between 3 and 50 characters", http.StatusBadRequest)
		return
	}
	// "draw" is the stored winner marker for drawn games
	if bot.IsBotName(req.Username) || req.Username == "draw" {
		writeJSONError(w, "This username is reserved", http.StatusBadRequest)
		return
	}

	// Validate password
	if len(req.Password) < 6 {
		writeJSONError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	// Check if username already exists
	existingUser, err := db.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("[AUTH] Error checking existing user: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if existingUser != nil {
		writeJSONError(w, "Username already exists", http.StatusConflict)
		return
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AUTH] Error hashing password: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Create user
	userID, err := db.CreateUser(req.Username, string(passwordHash))
	if err != nil {
		log.Printf("[AUTH] Error creating user: %v", err)
		writeJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := createSessionAndToken(r, userID, req.Username)
	if err != nil {
		log.Printf("[AUTH] Error creating session: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Printf("[AUTH] User registered successfully: %s (ID: %d)", req.Username, userID)

	// Set JWT in HTTP-only cookie
	utils.SetAuthCookie(w, token)

	// Send response (token included for hybrid approach - frontend can read from response)
	writeJSON(w, AuthResponse{
		Token:    token,
		UserID:   userID,
		Username: req.Username,
	}, http.StatusCreated)
}

// MakeHandleLogin builds the login handler around the live connection
// manager so a fresh login can displace older devices.
func MakeHandleLogin(connManager UserDisconnector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		log.Printf("[AUTH] Login attempt for username: %s", req.Username)

		if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
			writeJSONError(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserByUsername(req.Username)
		if err != nil {
			log.Printf("[AUTH] Error looking up user %s: %v", req.Username, err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		// An unknown username and an OAuth-only account fail the same
		// way as a wrong password
		if user == nil || user.PasswordHash == "" {
			writeJSONError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			writeJSONError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}

		// One active session per account
		if err := utils.InvalidateAllUserSessions(user.ID); err != nil {
			log.Printf("[AUTH] Failed to invalidate old sessions for user %d: %v", user.ID, err)
		}

		token, err := createSessionAndToken(r, user.ID, user.Username)
		if err != nil {
			log.Printf("[AUTH] Login failed for user %s: session error - %v", req.Username, err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		log.Printf("[AUTH] User logged in successfully: %s (ID: %d)", user.Username, user.ID)

		// Disconnect any existing WebSocket connections for this user
		if connManager != nil {
			connManager.DisconnectUser(user.ID, "Logged in from another device")
		}

		// Set JWT in HTTP-only cookie
		utils.SetAuthCookie(w, token)

		// Send response (token included for hybrid approach - frontend can read from response)
		writeJSON(w, AuthResponse{
			Token:    token,
			UserID:   user.ID,
			Username: user.Username,
		}, http.StatusOK)
	}
}

// HandleLogout invalidates the server-side session and clears the
// auth cookie
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := utils.GetTokenFromRequest(r)
	if err == nil {
		if claims, err := utils.ValidateJWT(token); err == nil {
			if err := utils.InvalidateSession(claims.SessionID); err != nil {
				log.Printf("[AUTH] Failed to invalidate session for user %d: %v", claims.UserID, err)
			}
		}
	}

	// Clear the auth cookie
	utils.ClearAuthCookie(w)

	log.Printf("[AUTH] User logged out successfully")

	// Send success response
	writeJSON(w, map[string]string{"message": "Logged out successfully"}, http.StatusOK)
}

// HandleMe returns current user info based on the auth cookie
func HandleMe(w http.ResponseWriter, r *http.Request) {
	token, err := utils.GetTokenFromRequest(r)
	if err != nil {
		writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	// Validate JWT and make sure the session behind it is still alive
	claims, err := utils.ValidateJWTWithSession(token)
	if err != nil {
		writeJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	if err := utils.UpdateSessionActivity(claims.SessionID); err != nil {
		log.Printf("[AUTH] Failed to update session activity for user %d: %v", claims.UserID, err)
	}

	user, err := db.GetUserByID(claims.UserID)
	if err != nil || user == nil {
		log.Printf("[AUTH] Failed to load user %d: %v", claims.UserID, err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Return user info and token (for WebSocket use)
	writeJSON(w, MeResponse{
		Token:       token,
		UserID:      user.ID,
		Username:    user.Username,
		GamesPlayed: user.GamesPlayed,
		GamesWon:    user.GamesWon,
	}, http.StatusOK)
}

// createSessionAndToken opens a fresh server-side session for the user
// and mints the JWT bound to it.
func createSessionAndToken(r *http.Request, userID int64, username string) (string, error) {
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return "", err
	}

	expirationHours := config.GetEnvAsInt("JWT_EXPIRATION_HOURS", 720)
	now := time.Now()

	session := &models.UserSession{
		UserID:       userID,
		SessionID:    sessionID,
		DeviceInfo:   utils.ExtractDeviceInfo(r),
		IPAddress:    utils.ExtractIPAddress(r),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(expirationHours) * time.Hour),
		LastActivity: now,
		IsActive:     true,
	}
	if err := utils.SetSession(session); err != nil {
		return "", err
	}

	return utils.GenerateJWT(userID, username, sessionID)
}

// requireAuth resolves the requesting user or writes a 401. The bool
// reports whether the request may proceed.
func requireAuth(w http.ResponseWriter, r *http.Request) (*utils.Claims, bool) {
	token, err := utils.GetTokenFromRequest(r)
	if err != nil {
		writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
		return nil, false
	}

	claims, err := utils.ValidateJWTWithSession(token)
	if err != nil {
		writeJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
		return nil, false
	}

	return claims, true
}

// Helper functions
func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, ErrorResponse{Error: message}, status)
}
