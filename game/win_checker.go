package game

// CheckWin reports whether the board contains a completed line through
// lastMove. Only the lines passing through lastMove are examined. When
// a move completes more than one line at once, the first one in table
// order is returned.
func CheckWin(b Board, lastMove int) (Line, bool) {
	for _, line := range LinesThrough(lastMove) {
		p := b[line[0]]
		if p != Empty && p == b[line[1]] && p == b[line[2]] {
			return line, true
		}
	}
	return Line{}, false
}
