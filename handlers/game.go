package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/bot"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/db"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
)

const gameHistoryLimit = 20

type GameHistoryItem struct {
	GameID          string    `json:"game_id"`
	Mode            string    `json:"mode"`
	Difficulty      string    `json:"difficulty,omitempty"`
	Opponent        string    `json:"opponent"`
	Result          string    `json:"result"` // "won", "lost", "draw", "abandoned"
	Reason          string    `json:"reason"`
	TotalMoves      int       `json:"total_moves"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

type GameHistoryResponse struct {
	Games []GameHistoryItem `json:"games"`
}

// HandleGameHistory returns the most recent games of the authenticated
// user, newest first
func HandleGameHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireAuth(w, r)
	if !ok {
		return
	}

	games, err := db.GetGamesByUserID(claims.UserID, gameHistoryLimit)
	if err != nil {
		log.Printf("[HISTORY] Failed to fetch games for user %d: %v", claims.UserID, err)
		writeJSONError(w, "Failed to fetch game history", http.StatusInternalServerError)
		return
	}

	historyItems := make([]GameHistoryItem, 0, len(games))
	for _, g := range games {
		historyItems = append(historyItems, GameHistoryItem{
			GameID:          g.GameID,
			Mode:            g.Mode,
			Difficulty:      g.Difficulty,
			Opponent:        opponentName(&g),
			Result:          resultFor(&g),
			Reason:          g.Reason,
			TotalMoves:      g.TotalMoves,
			DurationSeconds: g.DurationSeconds,
			CreatedAt:       g.CreatedAt,
			FinishedAt:      g.FinishedAt,
		})
	}

	writeJSON(w, GameHistoryResponse{Games: historyItems}, http.StatusOK)
}

type BoardViewResponse struct {
	GameID          string    `json:"game_id"`
	Board           []int     `json:"board"`
	WinningLine     []int     `json:"winning_line,omitempty"`
	HostUsername    string    `json:"host_username"`
	Opponent        string    `json:"opponent"`
	Mode            string    `json:"mode"`
	Difficulty      string    `json:"difficulty,omitempty"`
	Winner          string    `json:"winner,omitempty"`
	Reason          string    `json:"reason"`
	TotalMoves      int       `json:"total_moves"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// HandleGetBoard returns the final state of a finished game. Game IDs
// are unguessable, so a finished board is shareable without auth.
func HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		writeJSONError(w, "Game ID is required", http.StatusBadRequest)
		return
	}

	g, err := db.GetGameByID(gameID)
	if err != nil {
		log.Printf("[BOARD] Failed to fetch game %s: %v", gameID, err)
		writeJSONError(w, "Failed to fetch game", http.StatusInternalServerError)
		return
	}
	if g == nil {
		writeJSONError(w, "Game not found", http.StatusNotFound)
		return
	}

	writeJSON(w, BoardViewResponse{
		GameID:          g.GameID,
		Board:           decodeBoard(g.FinalBoard),
		WinningLine:     decodeLine(g.WinningLine),
		HostUsername:    g.HostUsername,
		Opponent:        opponentName(g),
		Mode:            g.Mode,
		Difficulty:      g.Difficulty,
		Winner:          g.Winner,
		Reason:          g.Reason,
		TotalMoves:      g.TotalMoves,
		DurationSeconds: g.DurationSeconds,
		CreatedAt:       g.CreatedAt,
		FinishedAt:      g.FinishedAt,
	}, http.StatusOK)
}

type LeaderboardResponse struct {
	Players []db.PlayerStats `json:"players"`
}

// HandleLeaderboard returns the ranking of all players with at least
// one finished bot game
func HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := db.GetLeaderboard()
	if err != nil {
		log.Printf("[LEADERBOARD] Failed to fetch leaderboard: %v", err)
		writeJSONError(w, "Failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}
	if leaderboard == nil {
		leaderboard = []db.PlayerStats{}
	}

	writeJSON(w, LeaderboardResponse{Players: leaderboard}, http.StatusOK)
}

// opponentName reconstructs the display name of the second seat.
func opponentName(g *db.GameResult) string {
	if g.Mode == string(models.ModeBot) {
		return bot.GetBotName(bot.ParseDifficulty(g.Difficulty))
	}
	return models.LocalGuestName
}

// resultFor reports the stored game from the host's perspective.
func resultFor(g *db.GameResult) string {
	switch {
	case g.Reason == models.ReasonDraw:
		return "draw"
	case g.Winner == "":
		return "abandoned"
	case g.Winner == g.HostUsername:
		return "won"
	}
	return "lost"
}

// decodeBoard expands the stored digit string back into cell values.
func decodeBoard(s string) []int {
	cells := make([]int, 0, len(s))
	for _, c := range s {
		cells = append(cells, int(c-'0'))
	}
	return cells
}

// decodeLine parses the stored comma-separated cell triple.
func decodeLine(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	line := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		line = append(line, n)
	}
	return line
}
