package roomdto

// Room and state payloads are already JSON-shaped values owned by the server;
// they are carried as-is.

type RoomDeleted struct {
	RoomID string `json:"roomId"`
}

type GameStarted struct {
	Room any `json:"room"`
}

type StateUpdated struct {
	GameState any `json:"gameState"`
}

type GameEnded struct {
	Room   any    `json:"room"`
	Winner string `json:"winner,omitempty"`
	IsDraw bool   `json:"isDraw"`
}

// ErrorPayload is sent with game:error. Code is the machine readable reason when known.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}
