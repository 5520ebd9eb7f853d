package game

import "fmt"

// to represent the players in the game
type Player int

const (
	Empty   Player = 0
	Player1 Player = 1
	Player2 Player = 2
)

func (p Player) Opponent() Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	}
	return "empty"
}

// board dimensions
const (
	Size        = 3                  // cells per axis
	CellCount   = Size * Size * Size // 27
	CenterIndex = 13                 // cell (1,1,1), shared by all four space diagonals
)

// Board is the full 3x3x3 lattice in a fixed-length array. Index i holds
// the occupant of cell (i mod 3, (i/3) mod 3, i/9). Being an array, a
// Board copies on assignment, so callers can hand out snapshots freely.
type Board [CellCount]Player

// ToIndex converts lattice coordinates to a cell index. Coordinates
// outside [0,3) are a programmer error and panic.
func ToIndex(x, y, z int) int {
	if x < 0 || x >= Size || y < 0 || y >= Size || z < 0 || z >= Size {
		panic(fmt.Sprintf("game: coordinates (%d,%d,%d) out of range", x, y, z))
	}
	return x + Size*y + Size*Size*z
}

// ToCoord is the exact inverse of ToIndex. Indices outside [0,27) panic.
func ToCoord(idx int) (x, y, z int) {
	if idx < 0 || idx >= CellCount {
		panic(fmt.Sprintf("game: cell index %d out of range", idx))
	}
	return idx % Size, (idx / Size) % Size, idx / (Size * Size)
}

// CellKind classifies a cell by its position in the lattice. The kind
// determines how many winning lines pass through the cell and drives
// the search engine's move ordering.
type CellKind int

const (
	Corner     CellKind = iota // 8 cells, 7 lines each
	Edge                       // 12 cells, 4 lines each
	FaceCenter                 // 6 cells, 5 lines each
	Center                     // 1 cell, 13 lines
)

// KindOf classifies a cell by counting how many of its coordinates sit
// on the middle of an axis.
func KindOf(idx int) CellKind {
	x, y, z := ToCoord(idx)
	middle := 0
	if x == 1 {
		middle++
	}
	if y == 1 {
		middle++
	}
	if z == 1 {
		middle++
	}
	switch middle {
	case 3:
		return Center
	case 2:
		return FaceCenter
	case 1:
		return Edge
	}
	return Corner
}

func (b Board) IsEmpty(idx int) bool {
	return b[idx] == Empty
}

// EmptyCells returns the indices of all unoccupied cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, CellCount)
	for i, p := range b {
		if p == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

func (b Board) CountEmpty() int {
	count := 0
	for _, p := range b {
		if p == Empty {
			count++
		}
	}
	return count
}

func (b Board) IsFull() bool {
	for _, p := range b {
		if p == Empty {
			return false
		}
	}
	return true
}
