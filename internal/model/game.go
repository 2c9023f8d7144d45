package model

import "time"

// GameID uniquely identifies a game
type GameID string

// Color is a disc color on the board
type Color string

const (
	ColorBlack Color = "B"
	ColorWhite Color = "W"
	ColorEmpty Color = "E"
)

// BoardSize is the width and height of an othello board
const BoardSize = 8

// WinnerTie is the winner value recorded when a game ends level
const WinnerTie = "tie"

// Game is the game document as the game service stores and returns it
type Game struct {
	ID        GameID    `json:"_id"`
	Players   [2]string `json:"players"`
	Colors    [2]Color  `json:"colors"`
	Board     [][]Color `json:"gameState"`
	Next      string    `json:"next"`
	Winner    string    `json:"winner"`
	Moves     []Move    `json:"moves,omitempty"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// Position is a cell on the board
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether the position lies on the board
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

// Move records a single disc placement
type Move struct {
	Player   string    `json:"player"`
	Position Position  `json:"position"`
	At       time.Time `json:"at"`
}

// GameParams are the parameters for creating a new game
type GameParams struct {
	Opponent  string `json:"opponent"`
	UserColor Color  `json:"usercolor"`
}

// Opponent returns the other player in the game, from the given player's view
func (g *Game) Opponent(player string) string {
	if g.Players[0] == player {
		return g.Players[1]
	}
	return g.Players[0]
}

// ColorOf returns the color the given player plays, or ColorEmpty
func (g *Game) ColorOf(player string) Color {
	for i, p := range g.Players {
		if p == player {
			return g.Colors[i]
		}
	}
	return ColorEmpty
}

// HasPlayer reports whether the player takes part in the game
func (g *Game) HasPlayer(player string) bool {
	return g.Players[0] == player || g.Players[1] == player
}

// IsComplete returns true once a winner (or tie) has been recorded
func (g *Game) IsComplete() bool {
	return g.Winner != ""
}

// NewBoard returns a board with the four starting discs placed
func NewBoard() [][]Color {
	board := make([][]Color, BoardSize)
	for y := range board {
		board[y] = make([]Color, BoardSize)
		for x := range board[y] {
			board[y][x] = ColorEmpty
		}
	}
	mid := BoardSize / 2
	board[mid-1][mid-1] = ColorWhite
	board[mid-1][mid] = ColorBlack
	board[mid][mid-1] = ColorBlack
	board[mid][mid] = ColorWhite
	return board
}
