package game

// Phase tracks where a game sits in its lifecycle. Finished is
// terminal; only starting a fresh game returns to Setup.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Outcome records how a finished game ended.
type Outcome string

const (
	OutcomeNone Outcome = "none"
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
)

// basic errors that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrOutOfRange        Error = "cell index out of range"
	ErrCellOccupied      Error = "cell is already occupied"
	ErrGameNotInProgress Error = "game is not in progress"
	ErrNoLegalMoves      Error = "no legal moves available"
)

// Game is a full snapshot of one game. It is a value type: Apply never
// mutates its receiver, it returns a new snapshot, so the caller always
// holds exactly one current state and older copies stay valid.
type Game struct {
	Board         Board
	CurrentPlayer Player
	Phase         Phase
	Outcome       Outcome
	Winner        Player
	WinningLine   *Line
	MoveCount     int
}

// New returns a fresh game in the Setup phase with Player1 to move.
func New() Game {
	return Game{
		CurrentPlayer: Player1,
		Phase:         PhaseSetup,
		Outcome:       OutcomeNone,
		Winner:        Empty,
	}
}

// Start moves a Setup game into play. Calling it in any other phase is
// a no-op.
func (g Game) Start() Game {
	if g.Phase != PhaseSetup {
		return g
	}
	g.Phase = PhaseInProgress
	return g
}

func (g Game) IsFinished() bool {
	return g.Phase == PhaseFinished
}

// Apply places the current player's mark at idx and returns the
// resulting state. Preconditions are checked in a fixed order: the game
// must be in progress with no decided outcome, the index must be in
// range and the cell empty. On any failure the receiver is returned
// unchanged, so a failed move can never leave a half-applied state.
//
// On success the win detector runs against the lines through idx. A win
// finishes the game with the mover as winner and the side to move left
// untouched. Filling the 27th cell without a win finishes it as a draw.
// Otherwise the turn passes to the opponent.
func (g Game) Apply(idx int) (Game, error) {
	if g.Phase != PhaseInProgress {
		return g, ErrGameNotInProgress
	}
	if g.Outcome != OutcomeNone {
		return g, ErrGameNotInProgress
	}
	if idx < 0 || idx >= CellCount {
		return g, ErrOutOfRange
	}
	if g.Board[idx] != Empty {
		return g, ErrCellOccupied
	}

	next := g
	next.Board[idx] = g.CurrentPlayer
	next.MoveCount++

	if line, ok := CheckWin(next.Board, idx); ok {
		next.Outcome = OutcomeWin
		next.Winner = g.CurrentPlayer
		next.WinningLine = &line
		next.Phase = PhaseFinished
		return next, nil
	}

	if next.MoveCount == CellCount {
		next.Outcome = OutcomeDraw
		next.Phase = PhaseFinished
		return next, nil
	}

	next.CurrentPlayer = g.CurrentPlayer.Opponent()
	return next, nil
}
