package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/bot"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/config"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/db"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/utils"
)

const oauthStateCookie = "oauth_state"

// HandleGoogleLogin redirects the user to the Google OAuth consent
// page. The random state round-trips through a short-lived cookie so
// the callback can reject forged requests.
func HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if config.GoogleOAuthConfig == nil {
		http.Error(w, "OAuth config not loaded", http.StatusInternalServerError)
		return
	}

	state := utils.GenerateToken()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := config.GoogleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	log.Printf("[OAUTH] Redirecting to Google Login")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleGoogleCallback handles the callback from Google
func HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	log.Println("[OAUTH] Callback received")

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		log.Printf("[OAUTH] State mismatch")
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	// The state is single use
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		log.Println("[OAUTH] Code not found in callback URL")
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := config.GoogleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		log.Printf("[OAUTH] Failed to exchange token: %v", err)
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := config.GoogleOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		log.Printf("[OAUTH] Failed to get user info: %v", err)
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	userData, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[OAUTH] Failed to read user data: %v", err)
		http.Error(w, "Failed to read user data", http.StatusInternalServerError)
		return
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := json.Unmarshal(userData, &googleUser); err != nil {
		log.Printf("[OAUTH] Failed to parse user data: %v", err)
		http.Error(w, "Failed to parse user data", http.StatusInternalServerError)
		return
	}
	log.Printf("[OAUTH] Fetched Google user %s (email: %s)", googleUser.ID, googleUser.Email)

	// Returning user
	user, err := db.GetUserByGoogleID(googleUser.ID)
	if err != nil {
		log.Printf("[OAUTH] Database error checking Google ID: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if user != nil {
		log.Printf("[OAUTH] User found by Google ID: %s. Logging in...", user.Username)
		loginAndRedirect(w, r, user.ID, user.Username)
		return
	}

	// No Google link yet, try the email for account linking
	existingUserByEmail, err := db.GetUserByEmail(googleUser.Email)
	if err != nil {
		log.Printf("[OAUTH] Error checking user by email: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if existingUserByEmail != nil {
		log.Printf("[OAUTH] User found by email: %s. Linking Google account...", existingUserByEmail.Username)
		if err := db.UpdateUserGoogleID(googleUser.Email, googleUser.ID); err != nil {
			log.Printf("[OAUTH] Failed to link accounts: %v", err)
			http.Error(w, "Failed to link accounts", http.StatusInternalServerError)
			return
		}
		loginAndRedirect(w, r, existingUserByEmail.ID, existingUserByEmail.Username)
		return
	}

	// Brand new user, hand them to the frontend to pick a username
	log.Println("[OAUTH] New user. Redirecting to complete signup...")
	setupToken, err := utils.GenerateSetupToken(googleUser.Email, googleUser.ID)
	if err != nil {
		http.Error(w, "Failed to generate setup token", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r,
		fmt.Sprintf("%s/complete-signup?token=%s", config.AppConfig.FrontendURL, setupToken),
		http.StatusTemporaryRedirect)
}

// loginAndRedirect opens a fresh session for the user, displacing any
// older ones, and sends them back to the frontend with the auth cookie
// set.
func loginAndRedirect(w http.ResponseWriter, r *http.Request, userID int64, username string) {
	if err := utils.InvalidateAllUserSessions(userID); err != nil {
		log.Printf("[OAUTH] Warning: Failed to invalidate old sessions: %v", err)
	}

	jwtToken, err := createSessionAndToken(r, userID, username)
	if err != nil {
		log.Printf("[OAUTH] Failed to create session for user %d: %v", userID, err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	utils.SetAuthCookie(w, jwtToken)
	log.Printf("[OAUTH] Redirecting to: %s", config.AppConfig.FrontendURL)
	http.Redirect(w, r, config.AppConfig.FrontendURL, http.StatusTemporaryRedirect)
}

type CompleteSignupRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleCompleteGoogleSignup finishes the signup of a user who arrived
// through Google: they pick a username and a local password, and the
// Google identity from the setup token is linked to the new account.
func HandleCompleteGoogleSignup(w http.ResponseWriter, r *http.Request) {
	var req CompleteSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate setup token
	claims, err := utils.ValidateSetupToken(req.Token)
	if err != nil {
		writeJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	// Validate inputs
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		writeJSONError(w, "Username must be between 3 and 50 characters", http.StatusBadRequest)
		return
	}
	// "draw" is the stored winner marker for drawn games
	if bot.IsBotName(req.Username) || req.Username == "draw" {
		writeJSONError(w, "This username is reserved", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		writeJSONError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	// Check if username taken
	existingUser, err := db.GetUserByUsername(req.Username)
	if err != nil {
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
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	userID, err := db.CreateUserWithGoogle(req.Username, string(passwordHash), claims.Email, claims.GoogleID)
	if err != nil {
		log.Printf("[OAUTH] Error creating user: %v", err)
		writeJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := createSessionAndToken(r, userID, req.Username)
	if err != nil {
		log.Printf("[OAUTH] Error creating session: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	utils.SetAuthCookie(w, jwtToken)

	writeJSON(w, AuthResponse{
		Token:    jwtToken,
		UserID:   userID,
		Username: req.Username,
	}, http.StatusCreated)
}
