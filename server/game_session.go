package server

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/bot"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/config"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/db"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/game"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
)

// ConnectionManagerInterface defines the interface for sending messages
type ConnectionManagerInterface interface {
	SendMessage(userID int64, message models.ServerMessage) error
}

// Hints search at the hard difficulty's depth.
const hintSearchDepth = 3

// GameSession runs one game for one connected user. The host always
// owns Player1; Player2 is either the bot or the local guest seat
// driven over the same connection.
type GameSession struct {
	GameID         string
	HostID         int64
	HostUsername   string
	Mode           models.GameMode
	Difficulty     bot.BotDifficulty // empty outside bot mode
	OpponentName   string
	Game           game.Game
	Bot            *bot.Bot // nil outside bot mode
	Reason         string
	WinnerName     string
	ReconnectTimer *time.Timer
	CreatedAt      time.Time
	FinishedAt     time.Time
	botThinking    bool
	hostGone       bool
	mu             sync.Mutex
}

func NewGameSession(hostID int64, hostUsername string, mode models.GameMode, difficulty string, conn ConnectionManagerInterface) *GameSession {
	gs := &GameSession{
		GameID:       uuid.NewString(),
		HostID:       hostID,
		HostUsername: hostUsername,
		Mode:         mode,
		Game:         game.New().Start(),
		CreatedAt:    time.Now(),
	}

	if mode == models.ModeBot {
		if difficulty == "" {
			difficulty = config.AppConfig.DefaultDifficulty
		}
		gs.Bot = bot.New(difficulty)
		gs.Difficulty = gs.Bot.Level
		gs.OpponentName = gs.Bot.Name()
	} else {
		gs.OpponentName = models.LocalGuestName
	}

	game_start_message := models.ServerMessage{
		Type:        "game_start",
		GameID:      gs.GameID,
		Mode:        string(gs.Mode),
		Difficulty:  string(gs.Difficulty),
		Opponent:    gs.OpponentName,
		YourPlayer:  int(game.Player1),
		CurrentTurn: int(gs.Game.CurrentPlayer),
		Board:       boardCells(gs.Game.Board),
	}
	conn.SendMessage(gs.HostID, game_start_message)

	return gs
}

// DisplayName resolves a seat to the name shown to players.
func (gs *GameSession) DisplayName(p game.Player) string {
	if p == game.Player1 {
		return gs.HostUsername
	}
	return gs.OpponentName
}

// IsFinished reports whether the session is over, either because the
// board decided it or because a resign or abandonment ended it early.
func (gs *GameSession) IsFinished() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.finishedLocked()
}

// finishedLocked covers both natural endings and session-level ones
// (resign, abandonment) that never touch the board.
func (gs *GameSession) finishedLocked() bool {
	return !gs.FinishedAt.IsZero() || gs.Game.IsFinished()
}

func (gs *GameSession) HandleMove(userID int64, cell int, conn ConnectionManagerInterface) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if userID != gs.HostID {
		return fmt.Errorf("player not in this game")
	}
	if gs.finishedLocked() {
		return fmt.Errorf("game already finished")
	}
	if gs.botThinking {
		return fmt.Errorf("not your turn")
	}
	if gs.Mode == models.ModeBot && gs.Game.CurrentPlayer != game.Player1 {
		return fmt.Errorf("not your turn")
	}

	mover := gs.Game.CurrentPlayer
	next, err := gs.Game.Apply(cell)
	if err != nil {
		return err
	}
	gs.Game = next

	if gs.Game.IsFinished() {
		gs.finishLocked(conn)
		return nil
	}

	gs.sendMoveLocked(conn, mover, cell)

	// Hand the turn to the engine; the reply lands asynchronously so
	// the think delay never blocks other sessions
	if gs.Mode == models.ModeBot && gs.Game.CurrentPlayer == game.Player2 {
		gs.botThinking = true
		go gs.playBotMove(conn)
	}

	return nil
}

// playBotMove computes and applies the bot's reply after the configured
// think delay. botThinking holds off competing host moves until the
// reply has landed.
func (gs *GameSession) playBotMove(conn ConnectionManagerInterface) {
	time.Sleep(config.AppConfig.BotThinkDelay)

	gs.mu.Lock()
	defer gs.mu.Unlock()
	defer func() { gs.botThinking = false }()

	// The game can end while the bot is thinking (resign, abandonment)
	if gs.finishedLocked() || gs.Game.CurrentPlayer != game.Player2 {
		return
	}

	cell, err := gs.Bot.ChooseMove(gs.Game.Board, game.Player2)
	if err != nil {
		log.Printf("[BOT] %s found no move in game %s: %v", gs.OpponentName, gs.GameID, err)
		return
	}

	next, err := gs.Game.Apply(cell)
	if err != nil {
		log.Printf("[BOT] %s produced an illegal move in game %s: %v", gs.OpponentName, gs.GameID, err)
		return
	}
	gs.Game = next

	if gs.Game.IsFinished() {
		gs.finishLocked(conn)
		return
	}

	gs.sendMoveLocked(conn, game.Player2, cell)
}

// HandleHint runs the analyzer on the current position and sends back
// the strongest cell for the side to move.
func (gs *GameSession) HandleHint(userID int64, conn ConnectionManagerInterface) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if userID != gs.HostID {
		return fmt.Errorf("player not in this game")
	}
	if gs.finishedLocked() {
		return fmt.Errorf("game already finished")
	}
	if gs.botThinking || (gs.Mode == models.ModeBot && gs.Game.CurrentPlayer != game.Player1) {
		return fmt.Errorf("not your turn")
	}

	scores := bot.Analyze(gs.Game.Board, gs.Game.CurrentPlayer, hintSearchDepth)
	if len(scores) == 0 {
		return game.ErrNoLegalMoves
	}

	best := scores[0]
	hint_message := models.ServerMessage{
		Type:   "hint",
		Cell:   best.Cell,
		Score:  best.Score,
		Player: int(gs.Game.CurrentPlayer),
	}
	conn.SendMessage(gs.HostID, hint_message)
	return nil
}

// HandleResign ends the game in favour of the resigner's opponent. In
// bot mode the resigner is always the host; in a local game it is
// whichever seat holds the turn.
func (gs *GameSession) HandleResign(userID int64, conn ConnectionManagerInterface, sm *SessionManager) error {
	gs.mu.Lock()

	if userID != gs.HostID {
		gs.mu.Unlock()
		return fmt.Errorf("player not in this game")
	}
	if gs.finishedLocked() {
		gs.mu.Unlock()
		return fmt.Errorf("game already finished")
	}

	resigning := gs.Game.CurrentPlayer
	if gs.Mode == models.ModeBot {
		resigning = game.Player1
	}

	gs.FinishedAt = time.Now()
	gs.Reason = models.ReasonResign
	gs.WinnerName = gs.DisplayName(resigning.Opponent())
	gs.stopReconnectTimerLocked()
	gs.persistLocked()

	game_over_message := models.ServerMessage{
		Type:   "game_over",
		GameID: gs.GameID,
		Winner: gs.WinnerName,
		Reason: models.ReasonResign,
		Board:  boardCells(gs.Game.Board),
	}
	conn.SendMessage(gs.HostID, game_over_message)
	gs.mu.Unlock()

	sm.RemoveSession(gs.GameID)
	return nil
}

// HandleDisconnect starts the reconnect grace period for the host.
func (gs *GameSession) HandleDisconnect(userID int64, conn ConnectionManagerInterface, sm *SessionManager) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if userID != gs.HostID {
		return fmt.Errorf("player not in this game")
	}
	if gs.finishedLocked() || gs.hostGone {
		return nil
	}

	gs.hostGone = true

	timeout := config.AppConfig.ReconnectTimeout
	gs.ReconnectTimer = time.AfterFunc(timeout, func() {
		gs.HandleReconnectTimeout(conn, sm)
	})

	log.Printf("[SESSION] Host %s left game %s, forfeit in %v unless they return", gs.HostUsername, gs.GameID, timeout)
	return nil
}

// HandleReconnectTimeout forfeits the game once the reconnect grace
// period lapses without the host returning.
func (gs *GameSession) HandleReconnectTimeout(conn ConnectionManagerInterface, sm *SessionManager) {
	gs.mu.Lock()

	if !gs.hostGone || gs.finishedLocked() {
		gs.mu.Unlock()
		return
	}

	gs.FinishedAt = time.Now()
	gs.Reason = models.ReasonAbandonment
	if gs.Mode == models.ModeBot {
		gs.WinnerName = gs.OpponentName
	}
	gs.ReconnectTimer = nil
	gs.persistLocked()

	log.Printf("[SESSION] Game %s forfeited by abandonment", gs.GameID)

	// The host is probably gone, but their socket may be back without
	// having rejoined the game, so try to tell them
	game_over_message := models.ServerMessage{
		Type:   "game_over",
		GameID: gs.GameID,
		Winner: gs.WinnerName,
		Reason: models.ReasonAbandonment,
		Board:  boardCells(gs.Game.Board),
	}
	conn.SendMessage(gs.HostID, game_over_message)
	gs.mu.Unlock()

	sm.RemoveSession(gs.GameID)
}

// HandleReconnect restores the host into a game they dropped out of and
// replays the full state.
func (gs *GameSession) HandleReconnect(userID int64, conn ConnectionManagerInterface) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if userID != gs.HostID {
		return fmt.Errorf("player not in this game")
	}
	if !gs.hostGone {
		return fmt.Errorf("player was not disconnected")
	}

	gs.hostGone = false
	gs.stopReconnectTimerLocked()

	reconnect_message := models.ServerMessage{
		Type:        "game_start",
		GameID:      gs.GameID,
		Mode:        string(gs.Mode),
		Difficulty:  string(gs.Difficulty),
		Opponent:    gs.OpponentName,
		YourPlayer:  int(game.Player1),
		CurrentTurn: int(gs.Game.CurrentPlayer),
		Board:       boardCells(gs.Game.Board),
	}
	conn.SendMessage(gs.HostID, reconnect_message)
	return nil
}

// TerminateByAbandonment ends a still-running game because its host
// walked away from it, without waiting for the grace period. The caller
// removes the session from the manager.
func (gs *GameSession) TerminateByAbandonment(conn ConnectionManagerInterface) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.finishedLocked() {
		return nil
	}

	gs.FinishedAt = time.Now()
	gs.Reason = models.ReasonAbandonment
	if gs.Mode == models.ModeBot {
		gs.WinnerName = gs.OpponentName
	}
	gs.stopReconnectTimerLocked()
	gs.persistLocked()

	game_over_message := models.ServerMessage{
		Type:   "game_over",
		GameID: gs.GameID,
		Winner: gs.WinnerName,
		Reason: models.ReasonAbandonment,
		Board:  boardCells(gs.Game.Board),
	}
	conn.SendMessage(gs.HostID, game_over_message)
	return nil
}

// finishLocked records a natural end of the game (win or draw on the
// board) and notifies the host. Callers hold gs.mu and have already
// applied the final move.
func (gs *GameSession) finishLocked(conn ConnectionManagerInterface) {
	gs.FinishedAt = time.Now()

	switch gs.Game.Outcome {
	case game.OutcomeWin:
		gs.Reason = models.ReasonLine
		gs.WinnerName = gs.DisplayName(gs.Game.Winner)
	case game.OutcomeDraw:
		gs.Reason = models.ReasonDraw
		gs.WinnerName = "draw"
	}

	gs.stopReconnectTimerLocked()
	gs.persistLocked()

	game_over_message := models.ServerMessage{
		Type:        "game_over",
		GameID:      gs.GameID,
		Winner:      gs.WinnerName,
		Reason:      gs.Reason,
		Board:       boardCells(gs.Game.Board),
		WinningLine: winningLineCells(gs.Game.WinningLine),
	}
	conn.SendMessage(gs.HostID, game_over_message)
}

func (gs *GameSession) sendMoveLocked(conn ConnectionManagerInterface, mover game.Player, cell int) {
	move_made_message := models.ServerMessage{
		Type:     "move_made",
		Cell:     cell,
		Player:   int(mover),
		Board:    boardCells(gs.Game.Board),
		NextTurn: int(gs.Game.CurrentPlayer),
	}
	conn.SendMessage(gs.HostID, move_made_message)
}

func (gs *GameSession) stopReconnectTimerLocked() {
	if gs.ReconnectTimer != nil {
		gs.ReconnectTimer.Stop()
		gs.ReconnectTimer = nil
	}
}

// persistLocked hands the finished game to storage and, for bot games,
// updates the host's win/loss record. With no database attached (unit
// tests) it is a no-op. Callers hold gs.mu.
func (gs *GameSession) persistLocked() {
	if db.DB == nil {
		return
	}

	result := db.GameResult{
		GameID:       gs.GameID,
		HostID:       gs.HostID,
		HostUsername: gs.HostUsername,
		Mode:         string(gs.Mode),
		Difficulty:   string(gs.Difficulty),
		Winner:       gs.WinnerName,
		Reason:       gs.Reason,
		TotalMoves:   gs.Game.MoveCount,
		FinalBoard:   encodeBoard(gs.Game.Board),
		WinningLine:  encodeLine(gs.Game.WinningLine),
		CreatedAt:    gs.CreatedAt,
		FinishedAt:   gs.FinishedAt,
	}

	// Storage writes stay off the session lock
	go func() {
		if err := db.SaveGame(result); err != nil {
			log.Printf("[SESSION] Failed to save game %s: %v", result.GameID, err)
		}
	}()
}

// boardCells flattens the board for the wire, cell i holding 0, 1 or 2.
func boardCells(b game.Board) []int {
	cells := make([]int, game.CellCount)
	for i, p := range b {
		cells[i] = int(p)
	}
	return cells
}

func winningLineCells(l *game.Line) []int {
	if l == nil {
		return nil
	}
	return []int{l[0], l[1], l[2]}
}

// encodeBoard flattens the board into a 27-character digit string for
// storage, in the same cell order as the wire format.
func encodeBoard(b game.Board) string {
	var sb strings.Builder
	sb.Grow(game.CellCount)
	for _, p := range b {
		sb.WriteByte(byte('0' + p))
	}
	return sb.String()
}

func encodeLine(l *game.Line) string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("%d,%d,%d", l[0], l[1], l[2])
}
