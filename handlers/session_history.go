package handlers

import (
	"log"
	"net/http"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/db"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
)

const sessionHistoryLimit = 10

type SessionHistoryResponse struct {
	Sessions []models.UserSession `json:"sessions"`
}

// HandleSessionHistory returns the authenticated user's most recent
// sign-ins, so they can spot devices they do not recognise
func HandleSessionHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireAuth(w, r)
	if !ok {
		return
	}

	sessions, err := db.GetUserSessionHistory(claims.UserID, sessionHistoryLimit)
	if err != nil {
		log.Printf("[SESSION] Failed to fetch session history for user %d: %v", claims.UserID, err)
		writeJSONError(w, "Failed to fetch session history", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []models.UserSession{}
	}

	writeJSON(w, SessionHistoryResponse{Sessions: sessions}, http.StatusOK)
}
