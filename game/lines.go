package game

// Line is an ordered triple of pairwise-distinct cell indices. A player
// wins by occupying all three cells of any line.
type Line [3]int

// Contains reports whether the line passes through the given cell.
func (l Line) Contains(idx int) bool {
	return l[0] == idx || l[1] == idx || l[2] == idx
}

// WinningLines enumerates every way to make three in a row on the
// 3x3x3 lattice: 9 rows, 9 columns, 6 in-layer diagonals, 9 pillars,
// 12 vertical-face diagonals and 4 space diagonals, 49 lines in total.
// The table is fixed for the lifetime of the process and its order is
// part of the contract: win detection reports the first completed line
// in this order.
var WinningLines = [49]Line{
	// rows (y and z fixed)
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{9, 10, 11}, {12, 13, 14}, {15, 16, 17},
	{18, 19, 20}, {21, 22, 23}, {24, 25, 26},

	// columns (x and z fixed)
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{9, 12, 15}, {10, 13, 16}, {11, 14, 17},
	{18, 21, 24}, {19, 22, 25}, {20, 23, 26},

	// in-layer diagonals (z fixed)
	{0, 4, 8}, {2, 4, 6},
	{9, 13, 17}, {11, 13, 15},
	{18, 22, 26}, {20, 22, 24},

	// pillars (x and y fixed)
	{0, 9, 18}, {1, 10, 19}, {2, 11, 20},
	{3, 12, 21}, {4, 13, 22}, {5, 14, 23},
	{6, 15, 24}, {7, 16, 25}, {8, 17, 26},

	// vertical-face diagonals, xz planes (y fixed)
	{0, 10, 20}, {2, 10, 18},
	{3, 13, 23}, {5, 13, 21},
	{6, 16, 26}, {8, 16, 24},

	// vertical-face diagonals, yz planes (x fixed)
	{0, 12, 24}, {6, 12, 18},
	{1, 13, 25}, {7, 13, 19},
	{2, 14, 26}, {8, 14, 20},

	// space diagonals
	{0, 13, 26}, {2, 13, 24}, {6, 13, 20}, {8, 13, 18},
}

// linesByCell maps every cell to the lines passing through it, in table
// order. Built once at init and never mutated afterwards.
var linesByCell [CellCount][]Line

func init() {
	for _, line := range WinningLines {
		for _, idx := range line {
			linesByCell[idx] = append(linesByCell[idx], line)
		}
	}
}

// LinesThrough returns the winning lines that pass through the given
// cell, in table order. The returned slice is shared; callers must not
// modify it.
func LinesThrough(idx int) []Line {
	return linesByCell[idx]
}
