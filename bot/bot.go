package bot

import (
	"math/rand"
	"time"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/game"
)

// the decision ladder every difficulty walks through
// 1. a full board is the caller's bug, report it as an error
// 2. a single remaining cell needs no thought
// 3. the difficulty's error roll may hand the turn to the weak fallback
// 4. the opening book covers the first two plies
// 5. take an immediate win if one exists
// 6. block the opponent's immediate win if one exists
// 7. only then run the alpha-beta search

// EASY_BLOCK_CHANCE is the sub-chance that an easy bot's blunder turns
// into a block of the opponent's threat instead of a random cell.
const EASY_BLOCK_CHANCE = 0.3

// Bot is a computer opponent at a fixed difficulty. Its random source
// drives the error rolls and opening variety; inject one through
// NewWithSource to make games reproducible.
type Bot struct {
	Level BotDifficulty
	rng   *rand.Rand
}

func New(difficulty string) *Bot {
	return NewWithSource(difficulty, rand.NewSource(time.Now().UnixNano()))
}

func NewWithSource(difficulty string, src rand.Source) *Bot {
	return &Bot{
		Level: ParseDifficulty(difficulty),
		rng:   rand.New(src),
	}
}

// Name returns the bot's display name.
func (bot *Bot) Name() string {
	return GetBotName(bot.Level)
}

// ChooseMove picks the next move for side on the given board. The
// shortcut ladder above runs in order, so no difficulty ever misses a
// one-move win or loses to a one-move threat it was allowed to see.
func (bot *Bot) ChooseMove(b game.Board, side game.Player) (int, error) {
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return -1, game.ErrNoLegalMoves
	}
	if len(empty) == 1 {
		return empty[0], nil
	}

	p := profiles[bot.Level]

	// deliberate imperfection, scaled by difficulty
	if p.ErrorRate > 0 && bot.rng.Float64() < p.ErrorRate {
		return bot.fallbackMove(b, side, empty), nil
	}

	if p.UseOpening {
		if mv := openingMove(b, bot.rng); mv >= 0 {
			return mv, nil
		}
	}

	// win in the next move
	if mv := findCompletingMove(b, side); mv >= 0 {
		return mv, nil
	}

	// block opponent from winning
	if mv := findCompletingMove(b, side.Opponent()); mv >= 0 {
		return mv, nil
	}

	mv, _ := searchBestMove(b, side, p.SearchDepth)
	if mv < 0 {
		return empty[0], nil
	}
	return mv, nil
}

// fallbackMove is the deliberately weak move used when the error roll
// fires. Easy bots still block a finish-in-one threat some of the
// time; otherwise the pick is a uniformly random empty cell.
func (bot *Bot) fallbackMove(b game.Board, side game.Player, empty []int) int {
	if bot.Level == DifficultyEasy && bot.rng.Float64() < EASY_BLOCK_CHANCE {
		if mv := findCompletingMove(b, side.Opponent()); mv >= 0 {
			return mv
		}
	}
	return empty[bot.rng.Intn(len(empty))]
}

// findCompletingMove scans the full line table for a cell that makes
// three in a line for side right now. Returns -1 when no line holds two
// of side's marks next to an open cell.
func findCompletingMove(b game.Board, side game.Player) int {
	for _, line := range game.WinningLines {
		mine, open := 0, -1
		for _, cell := range line {
			switch b[cell] {
			case side:
				mine++
			case game.Empty:
				open = cell
			}
		}
		if mine == 2 && open >= 0 {
			return open
		}
	}
	return -1
}
