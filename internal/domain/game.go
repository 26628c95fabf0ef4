package domain

import "strings"

// GameType tags the concrete variant of a game state.
type GameType string

const (
	GameGomoku GameType = "gomoku"
	GameCbmfs  GameType = "cbmfs"
)

func ParseGameType(s string) (GameType, bool) {
	switch GameType(strings.ToLower(strings.TrimSpace(s))) {
	case GameGomoku:
		return GameGomoku, true
	case GameCbmfs:
		return GameCbmfs, true
	default:
		return "", false
	}
}

// Player is the identity a room hands to an engine when a match starts.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Header carries the fields shared by every game state variant.
type Header struct {
	Type          GameType `json:"type"`
	CurrentPlayer string   `json:"currentPlayer"`
	Winner        string   `json:"winner,omitempty"`
	IsDraw        bool     `json:"isDraw,omitempty"`
}

func (h Header) GameType() GameType { return h.Type }
func (h Header) Current() string    { return h.CurrentPlayer }
func (h Header) WinnerID() string   { return h.Winner }
func (h Header) Drawn() bool        { return h.IsDraw }

// Finished reports whether the match accepts no further moves.
func (h Header) Finished() bool { return h.Winner != "" || h.IsDraw }

// PlayerIDs returns the ids of players in order.
func PlayerIDs(players []Player) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}
