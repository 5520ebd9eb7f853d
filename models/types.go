package models

// GameMode selects who sits across the board.
type GameMode string

const (
	ModeBot   GameMode = "bot"   // one player against the engine
	ModeLocal GameMode = "local" // two humans sharing one connection
)

// LocalGuestName is the display name of the second seat in a local
// hot-seat game.
const LocalGuestName = "Guest"

// ParseGameMode validates a client-supplied mode string.
func ParseGameMode(mode string) (GameMode, bool) {
	switch mode {
	case "bot":
		return ModeBot, true
	case "local":
		return ModeLocal, true
	}
	return "", false
}

// reasons recorded with a finished game
const (
	ReasonLine        = "three_in_a_line"
	ReasonDraw        = "draw"
	ReasonResign      = "resign"
	ReasonAbandonment = "abandonment"
)
