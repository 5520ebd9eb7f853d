package server

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/bot"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/config"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/game"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/models"
)

func TestMain(m *testing.M) {
	// Shrink the timers so asynchronous paths resolve within the test
	// run. db.DB stays nil, which turns persistence into a no-op.
	os.Setenv("BOT_THINK_DELAY_MS", "1")
	os.Setenv("RECONNECT_TIMEOUT_SECONDS", "1")
	config.LoadConfig()
	os.Exit(m.Run())
}

const (
	testHostID   = int64(7)
	testHostName = "magnus"
)

// fakeConnManager records every message a session sends, keyed by user.
type fakeConnManager struct {
	mu       sync.Mutex
	messages map[int64][]models.ServerMessage
}

func newFakeConnManager() *fakeConnManager {
	return &fakeConnManager{messages: make(map[int64][]models.ServerMessage)}
}

func (f *fakeConnManager) SendMessage(userID int64, message models.ServerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[userID] = append(f.messages[userID], message)
	return nil
}

func (f *fakeConnManager) count(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[userID])
}

func (f *fakeConnManager) message(userID int64, i int) models.ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[userID][i]
}

func (f *fakeConnManager) last(userID int64) models.ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[userID]
	return msgs[len(msgs)-1]
}

// waitForMessages polls until the user has received at least n messages.
// Bot replies and forfeit timers land on their own goroutines.
func (f *fakeConnManager) waitForMessages(t *testing.T, userID int64, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if f.count(userID) >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("got %d messages for user %d, want at least %d", f.count(userID), userID, n)
}

func mustMove(t *testing.T, gs *GameSession, cell int, conn ConnectionManagerInterface) {
	t.Helper()
	if err := gs.HandleMove(testHostID, cell, conn); err != nil {
		t.Fatalf("move %d: unexpected error: %v", cell, err)
	}
}

func TestNewGameSessionBotMode(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeBot, "hard", fake)

	if gs.GameID == "" {
		t.Fatal("session has no game ID")
	}
	if gs.Bot == nil {
		t.Fatal("bot mode session has no bot")
	}
	if gs.Difficulty != bot.DifficultyHard {
		t.Fatalf("difficulty = %q, want %q", gs.Difficulty, bot.DifficultyHard)
	}
	if gs.OpponentName != "Charles" {
		t.Fatalf("opponent = %q, want the hard bot's name", gs.OpponentName)
	}
	if gs.Game.Phase != game.PhaseInProgress {
		t.Fatalf("game phase = %q, want %q", gs.Game.Phase, game.PhaseInProgress)
	}

	msg := fake.message(testHostID, 0)
	if msg.Type != "game_start" {
		t.Fatalf("first message type = %q, want game_start", msg.Type)
	}
	if msg.GameID != gs.GameID || msg.Mode != "bot" || msg.Difficulty != "hard" || msg.Opponent != "Charles" {
		t.Fatalf("game_start = %+v, want the session's identity", msg)
	}
	if msg.YourPlayer != 1 || msg.CurrentTurn != 1 {
		t.Fatalf("seats = (%d, %d), want the host as Player1 with the opening turn", msg.YourPlayer, msg.CurrentTurn)
	}
	if len(msg.Board) != game.CellCount {
		t.Fatalf("board has %d cells, want %d", len(msg.Board), game.CellCount)
	}
}

func TestNewGameSessionLocalMode(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeLocal, "", fake)

	if gs.Bot != nil {
		t.Fatal("local session carries a bot")
	}
	if gs.Difficulty != "" {
		t.Fatalf("difficulty = %q, want empty outside bot mode", gs.Difficulty)
	}
	if gs.OpponentName != models.LocalGuestName {
		t.Fatalf("opponent = %q, want %q", gs.OpponentName, models.LocalGuestName)
	}

	msg := fake.message(testHostID, 0)
	if msg.Type != "game_start" || msg.Mode != "local" || msg.Difficulty != "" {
		t.Fatalf("game_start = %+v, want a local game without difficulty", msg)
	}
}

func TestNewGameSessionDefaultDifficulty(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeBot, "", fake)

	if gs.Difficulty != bot.DifficultyMedium {
		t.Fatalf("difficulty = %q, want the configured default %q", gs.Difficulty, bot.DifficultyMedium)
	}
	if gs.OpponentName != "Bob" {
		t.Fatalf("opponent = %q, want the medium bot's name", gs.OpponentName)
	}
}

func TestLocalHotSeatAlternation(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeLocal, "", fake)

	// Both seats move over the host's connection; the board enforces
	// alternation.
	mustMove(t, gs, 0, fake)
	first := fake.message(testHostID, 1)
	if first.Type != "move_made" || first.Cell != 0 || first.Player != 1 || first.NextTurn != 2 {
		t.Fatalf("first move = %+v, want Player1 at 0 handing the turn over", first)
	}
	if first.Board[0] != 1 {
		t.Fatalf("board cell 0 = %d, want 1", first.Board[0])
	}

	mustMove(t, gs, 9, fake)
	second := fake.message(testHostID, 2)
	if second.Type != "move_made" || second.Cell != 9 || second.Player != 2 || second.NextTurn != 1 {
		t.Fatalf("second move = %+v, want Player2 at 9 handing the turn back", second)
	}
}

func TestHandleMoveRejections(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeLocal, "", fake)

	if err := gs.HandleMove(99, 0, fake); err == nil {
		t.Fatal("move by a stranger accepted")
	}
	if err := gs.HandleMove(testHostID, game.CellCount, fake); err != game.ErrOutOfRange {
		t.Fatalf("out of range move: err = %v, want %v", err, game.ErrOutOfRange)
	}

	mustMove(t, gs, 0, fake)
	if err := gs.HandleMove(testHostID, 0, fake); err != game.ErrCellOccupied {
		t.Fatalf("occupied cell: err = %v, want %v", err, game.ErrCellOccupied)
	}

	// Only the legal move produced a message.
	if fake.count(testHostID) != 2 {
		t.Fatalf("got %d messages, want game_start plus one move_made", fake.count(testHostID))
	}
}

func TestBotModeTurnGuards(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeBot, "impossible", fake)

	gs.mu.Lock()
	gs.botThinking = true
	gs.mu.Unlock()
	if err := gs.HandleMove(testHostID, 0, fake); err == nil {
		t.Fatal("move accepted while the bot was thinking")
	}

	gs.mu.Lock()
	gs.botThinking = false
	gs.Game.CurrentPlayer = game.Player2
	gs.mu.Unlock()
	if err := gs.HandleMove(testHostID, 0, fake); err == nil {
		t.Fatal("move accepted on the bot's turn")
	}
}

func TestLocalWinSendsGameOver(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeLocal, "", fake)

	// Player1 completes {0,1,2} while Player2 builds {9,10}. The winning
	// move sends game_over in place of move_made.
	for _, mv := range []int{0, 9, 1, 10, 2} {
		mustMove(t, gs, mv, fake)
	}

	if fake.count(testHostID) != 6 {
		t.Fatalf("got %d messages, want game_start, four move_made and game_over", fake.count(testHostID))
	}

	over := fake.last(testHostID)
	if over.Type != "game_over" {
		t.Fatalf("last message type = %q, want game_over", over.Type)
	}
	if over.Winner != testHostName {
		t.Fatalf("winner = %q, want the host's username", over.Winner)
	}
	if over.Reason != models.ReasonLine {
		t.Fatalf("reason = %q, want %q", over.Reason, models.ReasonLine)
	}
	wantLine := []int{0, 1, 2}
	if len(over.WinningLine) != len(wantLine) {
		t.Fatalf("winning line = %v, want %v", over.WinningLine, wantLine)
	}
	for i, c := range wantLine {
		if over.WinningLine[i] != c {
			t.Fatalf("winning line = %v, want %v", over.WinningLine, wantLine)
		}
	}

	if !gs.IsFinished() {
		t.Fatal("session not finished after the winning move")
	}
	if gs.Game.Outcome != game.OutcomeWin || gs.Game.Winner != game.Player1 {
		t.Fatalf("outcome = %q winner = %v, want a Player1 win on the board", gs.Game.Outcome, gs.Game.Winner)
	}

	if err := gs.HandleMove(testHostID, 3, fake); err == nil {
		t.Fatal("move accepted after the game finished")
	}
}

func TestDrawSendsGameOver(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeLocal, "", fake)

	// Real play cannot reach a draw, every full two-coloring of the
	// cube holds a line. Plant a crafted near-full state whose last
	// open cell completes none of its seven lines.
	crafted := game.Game{
		CurrentPlayer: game.Player1,
		Phase:         game.PhaseInProgress,
		Outcome:       game.OutcomeNone,
		MoveCount:     game.CellCount - 1,
	}
	for _, idx := range []int{1, 3, 4, 9, 10, 12, 13, 5, 6, 16, 21, 24, 26} {
		crafted.Board[idx] = game.Player2
	}
	for _, idx := range []int{2, 7, 8, 11, 14, 15, 17, 18, 19, 20, 22, 23, 25} {
		crafted.Board[idx] = game.Player1
	}
	gs.mu.Lock()
	gs.Game = crafted
	gs.mu.Unlock()

	mustMove(t, gs, 0, fake)

	if gs.Game.Outcome != game.OutcomeDraw {
		t.Fatalf("outcome = %q after the final cell, want %q", gs.Game.Outcome, game.OutcomeDraw)
	}
	over := fake.last(testHostID)
	if over.Type != "game_over" || over.Reason != models.ReasonDraw || over.Winner != "draw" {
		t.Fatalf("game_over = %+v, want a draw", over)
	}
	if over.WinningLine != nil {
		t.Fatalf("winning line = %v on a draw, want none", over.WinningLine)
	}
}

func TestBotRepliesAfterThinkDelay(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeBot, "impossible", fake)

	// With the center still free the booked reply is forced, so the
	// bot's move is deterministic.
	mustMove(t, gs, 0, fake)
	fake.waitForMessages(t, testHostID, 3)

	reply := fake.message(testHostID, 2)
	if reply.Type != "move_made" || reply.Player != 2 {
		t.Fatalf("bot reply = %+v, want a Player2 move_made", reply)
	}
	if reply.Cell != game.CenterIndex {
		t.Fatalf("bot took %d, want the center", reply.Cell)
	}
	if reply.NextTurn != 1 {
		t.Fatalf("next turn = %d after the reply, want the host", reply.NextTurn)
	}

	// The reply cleared botThinking, so the host can move again.
	mustMove(t, gs, 1, fake)
}

func TestResignDuringBotThink(t *testing.T) {
	sm := NewSessionManager()
	fake := newFakeConnManager()
	gs := sm.CreateSession(testHostID, testHostName, models.ModeBot, "impossible", fake)

	mustMove(t, gs, 0, fake)
	if err := gs.HandleResign(testHostID, fake, sm); err != nil {
		t.Fatalf("resign: unexpected error: %v", err)
	}

	over := fake.last(testHostID)
	if over.Type != "game_over" || over.Reason != models.ReasonResign {
		t.Fatalf("last message = %+v, want a resign game_over", over)
	}

	// Whether the bot's reply landed before the resign or not, nothing
	// may arrive after game_over.
	time.Sleep(100 * time.Millisecond)
	if fake.last(testHostID).Type != "game_over" {
		t.Fatalf("message after game_over: %+v", fake.last(testHostID))
	}
}

func TestHandleHint(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeLocal, "", fake)

	// Player1 holds {0,1} and can win at 2; the analyzer must surface
	// it with the immediate-win score.
	for _, mv := range []int{0, 9, 1, 10} {
		mustMove(t, gs, mv, fake)
	}

	if err := gs.HandleHint(testHostID, fake); err != nil {
		t.Fatalf("hint: unexpected error: %v", err)
	}

	hint := fake.last(testHostID)
	if hint.Type != "hint" {
		t.Fatalf("last message type = %q, want hint", hint.Type)
	}
	if hint.Cell != 2 {
		t.Fatalf("hint cell = %d, want the winning cell 2", hint.Cell)
	}
	if hint.Score != bot.MINIMAX_WIN-1 {
		t.Fatalf("hint score = %v, want %v", hint.Score, bot.MINIMAX_WIN-1)
	}
	if hint.Player != 1 {
		t.Fatalf("hint player = %d, want the side to move", hint.Player)
	}
}

func TestHandleHintRejections(t *testing.T) {
	fake := newFakeConnManager()
	gs := NewGameSession(testHostID, testHostName, models.ModeBot, "impossible", fake)

	if err := gs.HandleHint(99, fake); err == nil {
		t.Fatal("hint for a stranger accepted")
	}

	gs.mu.Lock()
	gs.Game.CurrentPlayer = game.Player2
	gs.mu.Unlock()
	if err := gs.HandleHint(testHostID, fake); err == nil {
		t.Fatal("hint accepted on the bot's turn")
	}

	gs.mu.Lock()
	gs.Game.CurrentPlayer = game.Player1
	gs.FinishedAt = time.Now()
	gs.mu.Unlock()
	if err := gs.HandleHint(testHostID, fake); err == nil {
		t.Fatal("hint accepted after the game finished")
	}
}

func TestHandleResignLocalChargesTheSeatOnTurn(t *testing.T) {
	sm := NewSessionManager()
	fake := newFakeConnManager()
	gs := sm.CreateSession(testHostID, testHostName, models.ModeLocal, "", fake)

	// After one move the guest seat holds the turn, so resigning hands
	// the win to the host.
	mustMove(t, gs, 0, fake)
	if err := gs.HandleResign(testHostID, fake, sm); err != nil {
		t.Fatalf("resign: unexpected error: %v", err)
	}

	over := fake.last(testHostID)
	if over.Type != "game_over" || over.Reason != models.ReasonResign {
		t.Fatalf("last message = %+v, want a resign game_over", over)
	}
	if over.Winner != testHostName {
		t.Fatalf("winner = %q, want the host", over.Winner)
	}

	// The board itself never finished; the session did.
	if gs.Game.Outcome != game.OutcomeNone {
		t.Fatalf("board outcome = %q after resign, want untouched", gs.Game.Outcome)
	}
	if !gs.IsFinished() {
		t.Fatal("session not finished after resign")
	}

	if _, ok := sm.GetSessionByGameID(gs.GameID); ok {
		t.Fatal("session still registered after resign")
	}
	if sm.HasActiveGame(testHostID) {
		t.Fatal("host still has an active game after resign")
	}

	if err := gs.HandleResign(testHostID, fake, sm); err == nil {
		t.Fatal("second resign accepted")
	}
}

func TestHandleResignBotModeAlwaysChargesHost(t *testing.T) {
	sm := NewSessionManager()
	fake := newFakeConnManager()
	gs := sm.CreateSession(testHostID, testHostName, models.ModeBot, "hard", fake)

	if err := gs.HandleResign(testHostID, fake, sm); err != nil {
		t.Fatalf("resign: unexpected error: %v", err)
	}

	over := fake.last(testHostID)
	if over.Winner != "Charles" {
		t.Fatalf("winner = %q, want the bot", over.Winner)
	}

	if err := gs.HandleResign(99, fake, sm); err == nil {
		t.Fatal("resign by a stranger accepted")
	}
}

func TestDisconnectThenReconnect(t *testing.T) {
	sm := NewSessionManager()
	fake := newFakeConnManager()
	gs := sm.CreateSession(testHostID, testHostName, models.ModeLocal, "", fake)

	mustMove(t, gs, 4, fake)

	if err := gs.HandleDisconnect(testHostID, fake, sm); err != nil {
		t.Fatalf("disconnect: unexpected error: %v", err)
	}
	gs.mu.Lock()
	if gs.ReconnectTimer == nil || !gs.hostGone {
		gs.mu.Unlock()
		t.Fatal("disconnect armed no forfeit timer")
	}
	gs.mu.Unlock()

	if err := gs.HandleReconnect(testHostID, fake); err != nil {
		t.Fatalf("reconnect: unexpected error: %v", err)
	}

	replay := fake.last(testHostID)
	if replay.Type != "game_start" || replay.GameID != gs.GameID {
		t.Fatalf("reconnect replay = %+v, want game_start for the same game", replay)
	}
	if replay.Board[4] != 1 || replay.CurrentTurn != 2 {
		t.Fatalf("replay state = board[4]=%d turn=%d, want the position as left", replay.Board[4], replay.CurrentTurn)
	}

	gs.mu.Lock()
	if gs.ReconnectTimer != nil || gs.hostGone {
		gs.mu.Unlock()
		t.Fatal("reconnect left the forfeit timer armed")
	}
	gs.mu.Unlock()

	if err := gs.HandleReconnect(testHostID, fake); err == nil {
		t.Fatal("reconnect accepted while connected")
	}
}

func TestReconnectTimeoutForfeitsBotGame(t *testing.T) {
	sm := NewSessionManager()
	fake := newFakeConnManager()
	gs := sm.CreateSession(testHostID, testHostName, models.ModeBot, "medium", fake)

	if err := gs.HandleDisconnect(testHostID, fake, sm); err != nil {
		t.Fatalf("disconnect: unexpected error: %v", err)
	}

	// The grace period runs at one second under TestMain's env.
	fake.waitForMessages(t, testHostID, 2)

	over := fake.last(testHostID)
	if over.Type != "game_over" || over.Reason != models.ReasonAbandonment {
		t.Fatalf("last message = %+v, want an abandonment game_over", over)
	}
	if over.Winner != "Bob" {
		t.Fatalf("winner = %q, want the bot", over.Winner)
	}

	// The timer goroutine deregisters after sending game_over, so give
	// it a moment.
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := sm.GetSessionByGameID(gs.GameID); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session still registered after the forfeit")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestTerminateByAbandonment(t *testing.T) {
	cases := []struct {
		mode       models.GameMode
		difficulty string
		winner     string
	}{
		// A walked-away local game has no winner to credit.
		{models.ModeLocal, "", ""},
		{models.ModeBot, "impossible", "Diana"},
	}

	for _, tc := range cases {
		fake := newFakeConnManager()
		gs := NewGameSession(testHostID, testHostName, tc.mode, tc.difficulty, fake)

		if err := gs.TerminateByAbandonment(fake); err != nil {
			t.Fatalf("%s: terminate: unexpected error: %v", tc.mode, err)
		}

		over := fake.last(testHostID)
		if over.Type != "game_over" || over.Reason != models.ReasonAbandonment {
			t.Fatalf("%s: last message = %+v, want an abandonment game_over", tc.mode, over)
		}
		if over.Winner != tc.winner {
			t.Fatalf("%s: winner = %q, want %q", tc.mode, over.Winner, tc.winner)
		}
		if !gs.IsFinished() {
			t.Fatalf("%s: session not finished after termination", tc.mode)
		}

		// Terminating twice stays quiet.
		before := fake.count(testHostID)
		if err := gs.TerminateByAbandonment(fake); err != nil {
			t.Fatalf("%s: second terminate: unexpected error: %v", tc.mode, err)
		}
		if fake.count(testHostID) != before {
			t.Fatalf("%s: second termination sent another message", tc.mode)
		}
	}
}

func TestSessionManagerLifecycle(t *testing.T) {
	sm := NewSessionManager()
	fake := newFakeConnManager()
	gs := sm.CreateSession(testHostID, testHostName, models.ModeLocal, "", fake)

	if !sm.HasActiveGame(testHostID) {
		t.Fatal("freshly created game not active")
	}

	byUser, ok := sm.GetSessionByUserID(testHostID)
	if !ok || byUser != gs {
		t.Fatalf("GetSessionByUserID = (%v, %v), want the created session", byUser, ok)
	}
	byGame, ok := sm.GetSessionByGameID(gs.GameID)
	if !ok || byGame != gs {
		t.Fatalf("GetSessionByGameID = (%v, %v), want the created session", byGame, ok)
	}
	if _, ok := sm.GetSessionByGameIDAndUserID(gs.GameID, 99); ok {
		t.Fatal("session handed to a user who is not its host")
	}
	if _, ok := sm.GetSessionByGameIDAndUserID(gs.GameID, testHostID); !ok {
		t.Fatal("host denied their own session")
	}

	if err := sm.RemoveSession(gs.GameID); err != nil {
		t.Fatalf("remove: unexpected error: %v", err)
	}
	if sm.HasActiveGame(testHostID) {
		t.Fatal("removed game still active")
	}
	if _, ok := sm.GetSessionByUserID(testHostID); ok {
		t.Fatal("user still mapped to a removed game")
	}
	if err := sm.RemoveSession(gs.GameID); err == nil {
		t.Fatal("removing a removed session succeeded")
	}
}

func TestHasActiveGameFalseWhenFinished(t *testing.T) {
	sm := NewSessionManager()
	fake := newFakeConnManager()
	gs := sm.CreateSession(testHostID, testHostName, models.ModeLocal, "", fake)

	if err := gs.TerminateByAbandonment(fake); err != nil {
		t.Fatalf("terminate: unexpected error: %v", err)
	}

	// Still registered, but finished games do not count as active.
	if _, ok := sm.GetSessionByGameID(gs.GameID); !ok {
		t.Fatal("terminated session dropped out of the registry early")
	}
	if sm.HasActiveGame(testHostID) {
		t.Fatal("finished game reported active")
	}
}

func TestBoardEncoding(t *testing.T) {
	var b game.Board
	b[0] = game.Player1
	b[13] = game.Player2
	b[26] = game.Player1

	want := "1" + strings.Repeat("0", 12) + "2" + strings.Repeat("0", 12) + "1"
	if got := encodeBoard(b); got != want {
		t.Fatalf("encodeBoard = %q, want %q", got, want)
	}

	cells := boardCells(b)
	if len(cells) != game.CellCount || cells[0] != 1 || cells[13] != 2 || cells[26] != 1 {
		t.Fatalf("boardCells = %v, want the occupied cells as digits", cells)
	}

	if got := encodeLine(nil); got != "" {
		t.Fatalf("encodeLine(nil) = %q, want empty", got)
	}
	line := game.Line{6, 7, 8}
	if got := encodeLine(&line); got != "6,7,8" {
		t.Fatalf("encodeLine = %q, want \"6,7,8\"", got)
	}

	if winningLineCells(nil) != nil {
		t.Fatal("winningLineCells(nil) is not nil")
	}
	if got := winningLineCells(&line); len(got) != 3 || got[0] != 6 || got[1] != 7 || got[2] != 8 {
		t.Fatalf("winningLineCells = %v, want [6 7 8]", got)
	}
}
