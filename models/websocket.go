package models

// ClientMessage is every inbound websocket frame. The JWT rides along
// on each message so a hijacked socket cannot outlive its token.
type ClientMessage struct {
	Type       string `json:"type"`
	JWT        string `json:"jwt"`
	GameID     string `json:"gameId,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Cell       int    `json:"cell"`
}

// ServerMessage is every outbound websocket frame. Cell carries no
// omitempty: index 0 is a legal corner and must survive serialization.
type ServerMessage struct {
	Type        string  `json:"type"`
	Message     string  `json:"message,omitempty"`
	GameID      string  `json:"gameId,omitempty"`
	Mode        string  `json:"mode,omitempty"`
	Difficulty  string  `json:"difficulty,omitempty"`
	Opponent    string  `json:"opponent,omitempty"`
	YourPlayer  int     `json:"yourPlayer,omitempty"`
	CurrentTurn int     `json:"currentTurn,omitempty"`
	Cell        int     `json:"cell"`
	Score       float64 `json:"score,omitempty"`
	Player      int     `json:"player,omitempty"`
	Board       []int   `json:"board,omitempty"`
	NextTurn    int     `json:"nextTurn,omitempty"`
	Winner      string  `json:"winner,omitempty"`
	WinningLine []int   `json:"winningLine,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}
