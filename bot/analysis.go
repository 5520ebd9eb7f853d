package bot

import (
	"math"
	"sort"
	"sync"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/game"
)

// MoveScore pairs a legal cell with its search score from the moving
// side's point of view.
type MoveScore struct {
	Cell  int     `json:"cell"`
	Score float64 `json:"score"`
}

// Analyze scores every legal move for side at the given depth and
// returns them best first. The search is a pure function over its own
// board copy, so the candidates run concurrently, one goroutine each.
// Equal scores keep weight order, matching the search's own tie-break.
func Analyze(b game.Board, side game.Player, maxDepth int) []MoveScore {
	moves := orderedMoves(b)
	scores := make([]MoveScore, len(moves))

	var wg sync.WaitGroup
	for i, mv := range moves {
		i, mv := i, mv
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := b
			child[mv] = side
			score := minimax(child, 1, false, math.Inf(-1), math.Inf(1), side, maxDepth, mv)
			scores[i] = MoveScore{Cell: mv, Score: score}
		}()
	}
	wg.Wait()

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}
