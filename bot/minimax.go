package bot

import (
	"math"
	"sort"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/game"
)

const (
	MINIMAX_WIN  = 100.0
	MINIMAX_DRAW = 0.0
	// EVAL_SCALE shrinks heuristic leaf scores so a depth-limited
	// estimate can never outrank a real win or loss.
	EVAL_SCALE = 0.01

	WEIGHT_CENTER      = 30
	WEIGHT_FACE_CENTER = 20
	WEIGHT_CORNER      = 10
	WEIGHT_EDGE        = 5
)

// moveWeights ranks every cell for move ordering. Cells on more lines
// are tried first, which is what makes alpha-beta cutoffs bite.
var moveWeights [game.CellCount]int

func init() {
	for idx := 0; idx < game.CellCount; idx++ {
		switch game.KindOf(idx) {
		case game.Center:
			moveWeights[idx] = WEIGHT_CENTER
		case game.FaceCenter:
			moveWeights[idx] = WEIGHT_FACE_CENTER
		case game.Corner:
			moveWeights[idx] = WEIGHT_CORNER
		default:
			moveWeights[idx] = WEIGHT_EDGE
		}
	}
}

// orderedMoves lists the empty cells, strongest first. The sort is
// stable, so equally weighted cells keep ascending index order and the
// search's first-encountered tie-break stays deterministic.
func orderedMoves(b game.Board) []int {
	moves := b.EmptyCells()
	sort.SliceStable(moves, func(i, j int) bool {
		return moveWeights[moves[i]] > moveWeights[moves[j]]
	})
	return moves
}

// searchBestMove runs the depth-limited alpha-beta search for rootSide
// and returns the chosen cell together with its score. Ties go to the
// move examined first in weight order.
func searchBestMove(b game.Board, rootSide game.Player, maxDepth int) (int, float64) {
	bestMove := -1
	bestScore := math.Inf(-1)
	alpha := math.Inf(-1)
	beta := math.Inf(1)

	for _, mv := range orderedMoves(b) {
		child := b
		child[mv] = rootSide
		score := minimax(child, 1, false, alpha, beta, rootSide, maxDepth, mv)
		if score > bestScore {
			bestScore = score
			bestMove = mv
		}
		alpha = math.Max(alpha, bestScore)
	}

	return bestMove, bestScore
}

// minimax implements the minimax algorithm with alpha-beta pruning.
// depth counts plies from the root; lastMove is the cell placed on the
// way into this node, so the terminal check only scans its lines.
//
// Wins score MINIMAX_WIN minus the depth they occur at (quicker wins
// rank higher), losses mirror that (later losses rank higher), and a
// full board is a draw. At the depth limit the static evaluation is
// scaled down by EVAL_SCALE and returned as an estimate.
func minimax(b game.Board, depth int, maximizing bool, alpha, beta float64, rootSide game.Player, maxDepth, lastMove int) float64 {
	if _, ok := game.CheckWin(b, lastMove); ok {
		if b[lastMove] == rootSide {
			return MINIMAX_WIN - float64(depth) // Prefer quicker wins
		}
		return float64(depth) - MINIMAX_WIN // Prefer delaying losses
	}
	if b.IsFull() {
		return MINIMAX_DRAW
	}
	if depth >= maxDepth {
		return float64(Evaluate(b, rootSide)) * EVAL_SCALE
	}

	if maximizing {
		maxEval := math.Inf(-1)
		for _, mv := range orderedMoves(b) {
			child := b
			child[mv] = rootSide

			eval := minimax(child, depth+1, false, alpha, beta, rootSide, maxDepth, mv)
			maxEval = math.Max(maxEval, eval)
			alpha = math.Max(alpha, eval)

			if beta <= alpha {
				break // Beta cutoff
			}
		}
		return maxEval
	}

	minEval := math.Inf(1)
	opponent := rootSide.Opponent()
	for _, mv := range orderedMoves(b) {
		child := b
		child[mv] = opponent

		eval := minimax(child, depth+1, true, alpha, beta, rootSide, maxDepth, mv)
		minEval = math.Min(minEval, eval)
		beta = math.Min(beta, eval)

		if beta <= alpha {
			break // Alpha cutoff
		}
	}
	return minEval
}
