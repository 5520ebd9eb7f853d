package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	GoogleID     string
	GamesPlayed  int
	GamesWon     int
	CreatedAt    time.Time
}

type PlayerStats struct {
	Username    string  `json:"username"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	WinRate     float64 `json:"win_rate"`
}

// GameResult is one finished game as stored in the games table. The
// final board is a 27-character digit string in cell-index order and
// the winning line a comma-separated cell triple, empty when the game
// did not end on a completed line.
type GameResult struct {
	GameID          string    `json:"game_id"`
	HostID          int64     `json:"-"`
	HostUsername    string    `json:"host_username"`
	Mode            string    `json:"mode"`
	Difficulty      string    `json:"difficulty,omitempty"`
	Winner          string    `json:"winner,omitempty"`
	Reason          string    `json:"reason"`
	TotalMoves      int       `json:"total_moves"`
	DurationSeconds int       `json:"duration_seconds"`
	FinalBoard      string    `json:"final_board"`
	WinningLine     string    `json:"winning_line,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// CreateUser creates a new user with hashed password
func CreateUser(username, passwordHash string) (int64, error) {
	query := `
	INSERT INTO players (username, password_hash)
	VALUES ($1, $2)
	RETURNING id;
	`
	var userID int64
	err := DB.QueryRow(query, username, passwordHash).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %v", err)
	}
	return userID, nil
}

// CreateUserWithGoogle creates a user who finished the Google signup
// flow: they carry a local password and a linked Google account
func CreateUserWithGoogle(username, passwordHash, email, googleID string) (int64, error) {
	query := `
	INSERT INTO players (username, password_hash, email, google_id)
	VALUES ($1, $2, $3, $4)
	RETURNING id;
	`
	var userID int64
	err := DB.QueryRow(query, username, passwordHash, email, googleID).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %v", err)
	}
	return userID, nil
}

// UpdateUserGoogleID links a Google account to an existing user found
// by email
func UpdateUserGoogleID(email, googleID string) error {
	query := `
	UPDATE players
	SET google_id = $2
	WHERE email = $1;
	`
	_, err := DB.Exec(query, email, googleID)
	if err != nil {
		return fmt.Errorf("failed to link google account: %v", err)
	}
	return nil
}

// GetUserByUsername retrieves a user by username
func GetUserByUsername(username string) (*User, error) {
	query := `
	SELECT id, username, password_hash, email, google_id, games_played, games_won, created_at
	FROM players
	WHERE username = $1;
	`
	return scanUser(DB.QueryRow(query, username))
}

// GetUserByID retrieves a user by ID
func GetUserByID(userID int64) (*User, error) {
	query := `
	SELECT id, username, password_hash, email, google_id, games_played, games_won, created_at
	FROM players
	WHERE id = $1;
	`
	return scanUser(DB.QueryRow(query, userID))
}

// GetUserByGoogleID retrieves a user by their Google account ID
func GetUserByGoogleID(googleID string) (*User, error) {
	query := `
	SELECT id, username, password_hash, email, google_id, games_played, games_won, created_at
	FROM players
	WHERE google_id = $1;
	`
	return scanUser(DB.QueryRow(query, googleID))
}

// GetUserByEmail retrieves a user by email, used for account linking
func GetUserByEmail(email string) (*User, error) {
	query := `
	SELECT id, username, password_hash, email, google_id, games_played, games_won, created_at
	FROM players
	WHERE email = $1;
	`
	return scanUser(DB.QueryRow(query, email))
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var passwordHash, email, googleID sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&passwordHash,
		&email,
		&googleID,
		&user.GamesPlayed,
		&user.GamesWon,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	user.PasswordHash = passwordHash.String
	user.Email = email.String
	user.GoogleID = googleID.String
	return &user, nil
}

// SaveGame saves a finished game and updates the host's stats in one
// transaction
func SaveGame(result GameResult) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	defer tx.Rollback()

	// Only bot games count toward the host's record, the guest seat of
	// a local game has no account behind it
	if result.Mode == string(models.ModeBot) {
		hostWon := result.Winner == result.HostUsername
		if err := UpdatePlayerStatsTx(tx, result.HostID, hostWon); err != nil {
			return err
		}
	}

	durationSeconds := result.DurationSeconds
	if durationSeconds == 0 {
		durationSeconds = int(result.FinishedAt.Sub(result.CreatedAt).Seconds())
	}

	query := `
	INSERT INTO games (game_id, host_id, host_username, mode, difficulty, winner_username, reason, total_moves, duration_seconds, final_board, winning_line, created_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`

	_, err = tx.Exec(query,
		result.GameID,
		result.HostID,
		result.HostUsername,
		result.Mode,
		nullIfEmpty(result.Difficulty),
		nullIfEmpty(result.Winner),
		result.Reason,
		result.TotalMoves,
		durationSeconds,
		result.FinalBoard,
		nullIfEmpty(result.WinningLine),
		result.CreatedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game record: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// UpdatePlayerStatsTx updates player stats within a transaction
func UpdatePlayerStatsTx(tx *sql.Tx, userID int64, won bool) error {
	query := `
	UPDATE players
	SET games_played = games_played + 1,
	    games_won = games_won + CASE WHEN $2 THEN 1 ELSE 0 END
	WHERE id = $1;
	`
	_, err := tx.Exec(query, userID, won)
	if err != nil {
		return fmt.Errorf("failed to update player stats in transaction: %v", err)
	}
	return nil
}

// GetGameByID retrieves a finished game by its ID
func GetGameByID(gameID string) (*GameResult, error) {
	query := `
	SELECT game_id, host_id, host_username, mode, difficulty, winner_username, reason,
	       total_moves, duration_seconds, final_board, winning_line, created_at, finished_at
	FROM games
	WHERE game_id = $1;
	`

	var result GameResult
	var difficulty, winner, winningLine sql.NullString

	err := DB.QueryRow(query, gameID).Scan(
		&result.GameID,
		&result.HostID,
		&result.HostUsername,
		&result.Mode,
		&difficulty,
		&winner,
		&result.Reason,
		&result.TotalMoves,
		&result.DurationSeconds,
		&result.FinalBoard,
		&winningLine,
		&result.CreatedAt,
		&result.FinishedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by ID: %v", err)
	}

	result.Difficulty = difficulty.String
	result.Winner = winner.String
	result.WinningLine = winningLine.String

	return &result, nil
}

// GetGamesByUserID returns the user's most recent finished games,
// newest first
func GetGamesByUserID(userID int64, limit int) ([]GameResult, error) {
	query := `
	SELECT game_id, host_id, host_username, mode, difficulty, winner_username, reason,
	       total_moves, duration_seconds, final_board, winning_line, created_at, finished_at
	FROM games
	WHERE host_id = $1
	ORDER BY finished_at DESC
	LIMIT $2;
	`

	rows, err := DB.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game history: %v", err)
	}
	defer rows.Close()

	var games []GameResult
	for rows.Next() {
		var result GameResult
		var difficulty, winner, winningLine sql.NullString
		err := rows.Scan(
			&result.GameID,
			&result.HostID,
			&result.HostUsername,
			&result.Mode,
			&difficulty,
			&winner,
			&result.Reason,
			&result.TotalMoves,
			&result.DurationSeconds,
			&result.FinalBoard,
			&winningLine,
			&result.CreatedAt,
			&result.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %v", err)
		}
		result.Difficulty = difficulty.String
		result.Winner = winner.String
		result.WinningLine = winningLine.String
		games = append(games, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game rows: %v", err)
	}

	return games, nil
}

func GetLeaderboard() ([]PlayerStats, error) {
	query := `
	SELECT username, games_played, games_won,
		CASE
			WHEN games_played > 0 THEN ROUND((games_won::decimal / games_played) * 100, 2)
			ELSE 0
		END AS win_rate
	FROM players
	WHERE games_played > 0
	ORDER BY games_won DESC, username ASC
	LIMIT 100;
	`

	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %v", err)
	}
	defer rows.Close()

	var leaderboard []PlayerStats
	for rows.Next() {
		var stats PlayerStats
		if err := rows.Scan(&stats.Username, &stats.GamesPlayed, &stats.GamesWon, &stats.WinRate); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %v", err)
		}
		leaderboard = append(leaderboard, stats)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %v", err)
	}

	return leaderboard, nil
}

// nullIfEmpty maps the empty string to NULL for optional text columns
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
