package bot

import "github.com/bernhaaard/3d-tic-tac-toe/backend/game"

const (
	SCORE_LINE_THREE = 1000
	SCORE_LINE_TWO   = 10
	SCORE_LINE_ONE   = 1
	SCORE_CENTER     = 5
)

// Evaluate scores a non-terminal position from side's point of view.
// Every winning line still open for exactly one player contributes by
// how far along it is; lines holding marks of both players can never
// be completed and count for nothing. Holding the center adds a small
// edge on top of its lines.
//
// The function is side-symmetric: swapping perspectives flips the sign.
func Evaluate(b game.Board, side game.Player) int {
	opponent := side.Opponent()
	score := 0

	for _, line := range game.WinningLines {
		mine, theirs := 0, 0
		for _, cell := range line {
			switch b[cell] {
			case side:
				mine++
			case opponent:
				theirs++
			}
		}

		if mine > 0 && theirs > 0 {
			continue // contested line, dead for both players
		}

		switch {
		case mine == 3:
			score += SCORE_LINE_THREE
		case mine == 2:
			score += SCORE_LINE_TWO
		case mine == 1:
			score += SCORE_LINE_ONE
		case theirs == 3:
			score -= SCORE_LINE_THREE
		case theirs == 2:
			score -= SCORE_LINE_TWO
		case theirs == 1:
			score -= SCORE_LINE_ONE
		}
	}

	if b[game.CenterIndex] == side {
		score += SCORE_CENTER
	} else if b[game.CenterIndex] == opponent {
		score -= SCORE_CENTER
	}

	return score
}
