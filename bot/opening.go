package bot

import (
	"math/rand"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/game"
)

// cornerCells in ascending index order, the book's picks once the
// center is gone.
var cornerCells = [8]int{0, 2, 6, 8, 18, 20, 24, 26}

// openingMove plays the first two plies from the book: grab the center
// while it is free, otherwise take a random corner. Returns -1 once
// more than one cell is occupied and the book no longer applies.
func openingMove(b game.Board, rng *rand.Rand) int {
	if b.CountEmpty() < game.CellCount-1 {
		return -1
	}
	if b.IsEmpty(game.CenterIndex) {
		return game.CenterIndex
	}
	return cornerCells[rng.Intn(len(cornerCells))]
}
