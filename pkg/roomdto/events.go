package roomdto

import "encoding/json"

// Client → server events.
const (
	EventUserLogin   = "user:login"
	EventRoomGetList = "room:getList"
	EventRoomCreate  = "room:create"
	EventRoomJoin    = "room:join"
	EventRoomLeave   = "room:leave"
	EventGameStart   = "game:start"
	EventGameMove    = "game:makeMove"
	EventGameReset   = "game:reset"
)

// Server → client events.
const (
	EventUserJoined   = "user:joined"
	EventRoomList     = "room:list"
	EventRoomCreated  = "room:created"
	EventRoomUpdated  = "room:updated"
	EventRoomDeleted  = "room:deleted"
	EventGameStarted  = "game:started"
	EventStateUpdated = "game:stateUpdated"
	EventGameEnded    = "game:ended"
	EventGameError    = "game:error"
)

// Envelope is one websocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope.
func NewEnvelope(event string, data any) (Envelope, error) {
	env := Envelope{Event: event}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	env.Data = raw
	return env, nil
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}
