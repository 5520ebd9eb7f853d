package db

import "fmt"

// schema holds the full database layout. Every statement is idempotent
// so running it against an existing database is safe.
const schema = `
CREATE TABLE IF NOT EXISTS players (
	id BIGSERIAL PRIMARY KEY,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT,
	email TEXT,
	google_id TEXT UNIQUE,
	games_played INT NOT NULL DEFAULT 0,
	games_won INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS games (
	game_id UUID PRIMARY KEY,
	host_id BIGINT NOT NULL REFERENCES players(id),
	host_username TEXT NOT NULL,
	mode TEXT NOT NULL,
	difficulty TEXT,
	winner_username TEXT,
	reason TEXT NOT NULL,
	total_moves INT NOT NULL,
	duration_seconds INT NOT NULL,
	final_board CHAR(27) NOT NULL,
	winning_line TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_host_finished ON games (host_id, finished_at DESC);

CREATE TABLE IF NOT EXISTS user_sessions (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES players(id),
	session_id TEXT UNIQUE NOT NULL,
	device_info TEXT,
	ip_address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL,
	last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_user_sessions_user ON user_sessions (user_id, is_active);
`

// RunMigrations applies the schema to the connected database.
func RunMigrations() error {
	if _, err := DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %v", err)
	}
	return nil
}
