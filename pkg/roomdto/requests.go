package roomdto

type LoginRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type CreateRoomRequest struct {
	Name     string `json:"name"`
	GameType string `json:"gameType"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

// MakeMoveRequest carries either a gomoku placement (x, y) or a card action.
// RoomID is accepted for compatibility; the server uses the sender's current room.
type MakeMoveRequest struct {
	RoomID    string `json:"roomId,omitempty"`
	Action    string `json:"action,omitempty"`
	X         *int   `json:"x,omitempty"`
	Y         *int   `json:"y,omitempty"`
	SpellType string `json:"spellType,omitempty"`
}
