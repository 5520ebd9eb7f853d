package bot

type BotDifficulty string

const (
	DifficultyEasy       BotDifficulty = "easy"
	DifficultyMedium     BotDifficulty = "medium"
	DifficultyHard       BotDifficulty = "hard"
	DifficultyImpossible BotDifficulty = "impossible"
)

// profile bundles the knobs behind one difficulty level: how deep the
// search looks, how often the bot deliberately blunders, and whether
// the opening book is consulted.
type profile struct {
	SearchDepth int
	ErrorRate   float64
	UseOpening  bool
}

var profiles = map[BotDifficulty]profile{
	DifficultyEasy:       {SearchDepth: 1, ErrorRate: 0.7, UseOpening: false},
	DifficultyMedium:     {SearchDepth: 2, ErrorRate: 0.2, UseOpening: true},
	DifficultyHard:       {SearchDepth: 3, ErrorRate: 0.05, UseOpening: true},
	DifficultyImpossible: {SearchDepth: 4, ErrorRate: 0, UseOpening: true},
}

// ParseDifficulty validates and returns the bot difficulty
// Defaults to Medium if invalid or empty
func ParseDifficulty(difficulty string) BotDifficulty {
	switch difficulty {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	case "impossible":
		return DifficultyImpossible
	default:
		return DifficultyMedium // Default to medium
	}
}
