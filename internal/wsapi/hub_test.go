package wsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/game"
	"github.com/park285/cheese-rooms/internal/msgcat"
	"github.com/park285/cheese-rooms/internal/room"
	"github.com/park285/cheese-rooms/internal/session"
	"github.com/park285/cheese-rooms/pkg/roomdto"
)

type harness struct {
	srv *httptest.Server
	hub *Hub
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	games := game.NewManager(game.WithDice(domain.NewSeededDice(7, 11)))
	rooms := room.NewManager(rdb, games)
	msgs, err := msgcat.New("")
	require.NoError(t, err)

	hub := NewHub(rooms, session.NewRegistry(), append([]Option{WithCatalog(msgs)}, opts...)...)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &harness{srv: srv, hub: hub}
}

type client struct {
	t  *testing.T
	ws *websocket.Conn
	id string
}

func (h *harness) dial(t *testing.T) *client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(h.srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close(websocket.StatusNormalClosure, "") })
	return &client{t: t, ws: ws}
}

// login dials and logs in, recording the connection's user id.
func (h *harness) login(t *testing.T, name string) *client {
	c := h.dial(t)
	c.emit(roomdto.EventUserLogin, roomdto.LoginRequest{Name: name})
	var u session.User
	require.NoError(t, c.expect(roomdto.EventUserJoined).Decode(&u))
	c.id = u.ID
	return c
}

func (c *client) emit(event string, data any) {
	c.t.Helper()
	env, err := roomdto.NewEnvelope(event, data)
	require.NoError(c.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(c.t, wsjson.Write(ctx, c.ws, env))
}

// expect reads frames until one carries event; other events are skipped.
func (c *client) expect(event string) roomdto.Envelope {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var seen []string
	for {
		var env roomdto.Envelope
		if err := wsjson.Read(ctx, c.ws, &env); err != nil {
			c.t.Fatalf("waiting for %s: %v (seen %v)", event, err, seen)
		}
		if env.Event == event {
			return env
		}
		seen = append(seen, env.Event)
	}
}

func (c *client) expectError() roomdto.ErrorPayload {
	c.t.Helper()
	var p roomdto.ErrorPayload
	require.NoError(c.t, c.expect(roomdto.EventGameError).Decode(&p))
	return p
}

type wireRoom struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	HostID  string          `json:"hostId"`
	Players []domain.Player `json:"players"`
}

func decodeRoom(t *testing.T, env roomdto.Envelope) wireRoom {
	t.Helper()
	var r wireRoom
	require.NoError(t, env.Decode(&r))
	return r
}

// seatTwo creates a room of gt hosted by a and seats b in it.
func seatTwo(t *testing.T, h *harness, gt domain.GameType) (a, b *client, roomID string) {
	a = h.login(t, "Alice")
	b = h.login(t, "Bob")
	a.emit(roomdto.EventRoomCreate, roomdto.CreateRoomRequest{Name: "table", GameType: string(gt)})
	roomID = decodeRoom(t, a.expect(roomdto.EventRoomUpdated)).ID
	require.NotEmpty(t, roomID)
	b.expect(roomdto.EventRoomCreated)

	b.emit(roomdto.EventRoomJoin, roomdto.JoinRoomRequest{RoomID: roomID})
	joined := decodeRoom(t, a.expect(roomdto.EventRoomUpdated))
	require.Len(t, joined.Players, 2)
	b.expect(roomdto.EventRoomUpdated)
	return a, b, roomID
}

func TestLoginNormalisesNameAndListsRooms(t *testing.T) {
	h := newHarness(t)
	c := h.dial(t)
	c.emit(roomdto.EventUserLogin, roomdto.LoginRequest{Name: "  Alice\t "})
	var u session.User
	require.NoError(t, c.expect(roomdto.EventUserJoined).Decode(&u))
	assert.Equal(t, "Alice", u.Name)
	assert.NotEmpty(t, u.ID)
	assert.True(t, u.IsOnline)

	c.emit(roomdto.EventRoomGetList, nil)
	var rooms []wireRoom
	require.NoError(t, c.expect(roomdto.EventRoomList).Decode(&rooms))
	assert.Empty(t, rooms)
}

func TestRoomActionsRequireLogin(t *testing.T) {
	h := newHarness(t)
	c := h.dial(t)
	c.emit(roomdto.EventRoomCreate, roomdto.CreateRoomRequest{GameType: "gomoku"})
	p := c.expectError()
	assert.Equal(t, "login_required", p.Code)
	assert.Equal(t, "Please log in first.", p.Message)
}

func TestUnknownEventAndBadPayload(t *testing.T) {
	h := newHarness(t)
	c := h.login(t, "Alice")

	c.emit("room:explode", nil)
	assert.Equal(t, "Unknown event room:explode.", c.expectError().Message)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.ws.Write(ctx, websocket.MessageText, []byte(`{"event":"room:join","data":"nope"}`)))
	assert.Equal(t, "Malformed room:join request.", c.expectError().Message)
}

func TestCreateRejectsUnknownGameType(t *testing.T) {
	h := newHarness(t)
	c := h.login(t, "Alice")
	c.emit(roomdto.EventRoomCreate, roomdto.CreateRoomRequest{GameType: "chess"})
	p := c.expectError()
	assert.Equal(t, string(domain.CodeUnknownGameType), p.Code)
	assert.Equal(t, "Unknown game type.", p.Message)
}

func TestGomokuMatchOverWebsocket(t *testing.T) {
	h := newHarness(t)
	a, b, roomID := seatTwo(t, h, domain.GameGomoku)

	b.emit(roomdto.EventGameStart, nil)
	assert.Equal(t, "not_host", b.expectError().Code)

	a.emit(roomdto.EventGameStart, nil)
	a.expect(roomdto.EventGameStarted)
	b.expect(roomdto.EventGameStarted)

	b.emit(roomdto.EventGameMove, roomdto.MakeMoveRequest{Action: game.ActionGomokuPlace, X: ptr(0), Y: ptr(1)})
	p := b.expectError()
	assert.Equal(t, string(domain.CodeNotYourTurn), p.Code)
	assert.Equal(t, "It is not your turn.", p.Message)

	// both sides see each update before the next move
	for i := range 4 {
		a.emit(roomdto.EventGameMove, roomdto.MakeMoveRequest{RoomID: roomID, X: ptr(i), Y: ptr(0)})
		a.expect(roomdto.EventStateUpdated)
		b.expect(roomdto.EventStateUpdated)
		b.emit(roomdto.EventGameMove, roomdto.MakeMoveRequest{RoomID: roomID, X: ptr(i), Y: ptr(1)})
		b.expect(roomdto.EventStateUpdated)
		a.expect(roomdto.EventStateUpdated)
	}
	a.emit(roomdto.EventGameMove, roomdto.MakeMoveRequest{RoomID: roomID, X: ptr(4), Y: ptr(0)})

	var ended struct {
		Room   wireRoom `json:"room"`
		Winner string   `json:"winner"`
		IsDraw bool     `json:"isDraw"`
	}
	require.NoError(t, b.expect(roomdto.EventGameEnded).Decode(&ended))
	assert.Equal(t, a.id, ended.Winner)
	assert.False(t, ended.IsDraw)
	assert.Equal(t, string(room.StatusFinished), ended.Room.Status)

	// finished rooms drop out of the lobby list
	a.emit(roomdto.EventRoomGetList, nil)
	var rooms []wireRoom
	require.NoError(t, a.expect(roomdto.EventRoomList).Decode(&rooms))
	assert.Empty(t, rooms)
}

func TestCardMatchHidesOpponentHands(t *testing.T) {
	h := newHarness(t, WithHiddenHands(true))
	a, b, _ := seatTwo(t, h, domain.GameCbmfs)

	a.emit(roomdto.EventGameStart, nil)
	var started struct {
		Room struct {
			GameState struct {
				Hands      map[string][]string `json:"hands"`
				HandCounts map[string]int      `json:"handCounts"`
			} `json:"gameState"`
		} `json:"room"`
	}
	require.NoError(t, a.expect(roomdto.EventGameStarted).Decode(&started))
	gs := started.Room.GameState
	assert.Len(t, gs.Hands[a.id], 5)
	assert.Empty(t, gs.Hands[b.id])
	assert.Equal(t, map[string]int{a.id: 5, b.id: 5}, gs.HandCounts)
}

func TestCardMatchShowsHandsWhenNotHidden(t *testing.T) {
	h := newHarness(t, WithHiddenHands(false))
	a, b, _ := seatTwo(t, h, domain.GameCbmfs)

	a.emit(roomdto.EventGameStart, nil)
	var started struct {
		Room struct {
			GameState map[string]any `json:"gameState"`
		} `json:"room"`
	}
	require.NoError(t, b.expect(roomdto.EventGameStarted).Decode(&started))
	hands, ok := started.Room.GameState["hands"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, hands[a.id], 5)
	assert.NotContains(t, started.Room.GameState, "handCounts")
}

func TestDisconnectLeavesRoom(t *testing.T) {
	h := newHarness(t)
	a, b, roomID := seatTwo(t, h, domain.GameGomoku)

	require.NoError(t, a.ws.Close(websocket.StatusNormalClosure, "bye"))
	left := decodeRoom(t, b.expect(roomdto.EventRoomUpdated))
	assert.Equal(t, roomID, left.ID)
	require.Len(t, left.Players, 1)
	assert.Equal(t, b.id, left.HostID, "host moves to the remaining player")

	b.emit(roomdto.EventRoomLeave, nil)
	var del roomdto.RoomDeleted
	require.NoError(t, b.expect(roomdto.EventRoomDeleted).Decode(&del))
	assert.Equal(t, roomID, del.RoomID)
}

func TestJoinFullRoom(t *testing.T) {
	h := newHarness(t)
	_, _, roomID := seatTwo(t, h, domain.GameGomoku)
	c := h.login(t, "Carol")
	c.emit(roomdto.EventRoomJoin, roomdto.JoinRoomRequest{RoomID: roomID})
	p := c.expectError()
	assert.Equal(t, "room_full", p.Code)
	assert.Equal(t, "Room table is full.", p.Message)
}

func TestOriginAllowlist(t *testing.T) {
	h := newHarness(t, WithOriginAllowlist([]string{"http://good.example"}))
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://evil.example"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://good.example"}},
	})
	require.NoError(t, err)
	_ = ws.Close(websocket.StatusNormalClosure, "")
}

func TestConnectionsSurvivePingsAndAreReleased(t *testing.T) {
	h := newHarness(t, WithPingInterval(20*time.Millisecond), WithQueueSize(8))
	c := h.login(t, "Alice")
	assert.Equal(t, 1, h.hub.Connections())

	// idle across several ping periods
	time.Sleep(100 * time.Millisecond)
	c.emit(roomdto.EventRoomGetList, nil)
	c.expect(roomdto.EventRoomList)
	assert.Equal(t, 1, h.hub.Connections())

	require.NoError(t, c.ws.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return h.hub.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func ptr(v int) *int { return &v }
