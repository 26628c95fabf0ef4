package wsapi

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/game"
	"github.com/park285/cheese-rooms/internal/obslog"
	"github.com/park285/cheese-rooms/internal/room"
	"github.com/park285/cheese-rooms/internal/session"
	"github.com/park285/cheese-rooms/pkg/roomdto"
)

const handlerTimeout = 5 * time.Second

func (h *Hub) dispatch(c *conn, env roomdto.Envelope) {
	ctx, cancel := context.WithTimeout(c.ctx, handlerTimeout)
	defer cancel()

	switch env.Event {
	case roomdto.EventUserLogin:
		var req roomdto.LoginRequest
		if !h.decode(c, env, &req) {
			return
		}
		h.handleLogin(c, req)
	case roomdto.EventRoomGetList:
		h.handleList(ctx, c)
	case roomdto.EventRoomCreate:
		var req roomdto.CreateRoomRequest
		if !h.decode(c, env, &req) {
			return
		}
		h.withUser(c, func(u session.User) { h.handleCreate(ctx, c, u, req) })
	case roomdto.EventRoomJoin:
		var req roomdto.JoinRoomRequest
		if !h.decode(c, env, &req) {
			return
		}
		h.withUser(c, func(u session.User) { h.handleJoin(ctx, c, u, req) })
	case roomdto.EventRoomLeave:
		h.withUser(c, func(u session.User) { h.leaveCurrent(ctx, u.ID) })
	case roomdto.EventGameStart:
		h.withRoom(c, func(u session.User) { h.handleStart(ctx, c, u, false) })
	case roomdto.EventGameReset:
		h.withRoom(c, func(u session.User) { h.handleStart(ctx, c, u, true) })
	case roomdto.EventGameMove:
		var req roomdto.MakeMoveRequest
		if !h.decode(c, env, &req) {
			return
		}
		h.withRoom(c, func(u session.User) { h.handleMove(ctx, c, u, req) })
	default:
		h.sendError(c, h.text("transport.unknown_event", map[string]any{"Event": env.Event}, "unknown event"), "")
	}
}

func (h *Hub) decode(c *conn, env roomdto.Envelope, v any) bool {
	if err := env.Decode(v); err != nil {
		h.sendError(c, h.text("transport.bad_payload", map[string]any{"Event": env.Event}, "malformed request"), "")
		return false
	}
	return true
}

func (h *Hub) withUser(c *conn, fn func(session.User)) {
	u, ok := h.users.Get(c.id)
	if !ok {
		h.sendError(c, h.text("session.login_required", nil, "login required"), "login_required")
		return
	}
	fn(u)
}

func (h *Hub) withRoom(c *conn, fn func(session.User)) {
	h.withUser(c, func(u session.User) {
		if u.RoomID == "" {
			h.sendError(c, h.text("room.not_found", nil, "not in a room"), "room_not_found")
			return
		}
		fn(u)
	})
}

func (h *Hub) handleLogin(c *conn, req roomdto.LoginRequest) {
	prev, hadPrev := h.users.Get(c.id)
	u, err := h.users.Login(c.id, req.Name, req.Avatar)
	if err != nil {
		h.fail(c, err)
		return
	}
	// a repeated login keeps the current room
	if hadPrev && prev.RoomID != "" {
		u, _ = h.users.SetRoom(c.id, prev.RoomID)
	}
	obslog.L().Info("ws_login", zap.String("conn_id", c.id), zap.String("name", u.Name))
	h.send(c, roomdto.EventUserJoined, u)
}

func (h *Hub) handleList(ctx context.Context, c *conn) {
	rooms, err := h.rooms.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	views := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, h.view.room(r, c.id))
	}
	h.send(c, roomdto.EventRoomList, views)
}

func (h *Hub) handleCreate(ctx context.Context, c *conn, u session.User, req roomdto.CreateRoomRequest) {
	gt, ok := domain.ParseGameType(req.GameType)
	if !ok {
		h.fail(c, domain.ErrUnknownGameType)
		return
	}
	h.leaveCurrent(ctx, u.ID)
	r, err := h.rooms.Create(ctx, req.Name, gt, u.Player())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.users.SetRoom(u.ID, r.ID)
	h.toAll(roomdto.EventRoomCreated, func(viewer string) any { return h.view.room(r, viewer) })
	h.send(c, roomdto.EventRoomUpdated, h.view.room(r, c.id))
}

func (h *Hub) handleJoin(ctx context.Context, c *conn, u session.User, req roomdto.JoinRoomRequest) {
	if req.RoomID == "" {
		h.fail(c, room.ErrRoomNotFound)
		return
	}
	if u.RoomID != "" && u.RoomID != req.RoomID {
		h.leaveCurrent(ctx, u.ID)
	}
	r, err := h.rooms.Join(ctx, req.RoomID, u.Player())
	if err != nil {
		if errors.Is(err, room.ErrRoomFull) {
			name := req.RoomID
			if full, gerr := h.rooms.Get(ctx, req.RoomID); gerr == nil {
				name = full.Name
			}
			h.sendError(c, h.text("room.full", map[string]any{"Name": name}, err.Error()), "room_full")
			return
		}
		h.fail(c, err)
		return
	}
	h.users.SetRoom(u.ID, r.ID)
	h.broadcastRoom(r)
}

// leaveCurrent takes userID out of its room and tells the others.
func (h *Hub) leaveCurrent(ctx context.Context, userID string) {
	u, ok := h.users.Get(userID)
	if !ok || u.RoomID == "" {
		return
	}
	roomID := u.RoomID
	h.users.SetRoom(userID, "")
	r, err := h.rooms.Leave(ctx, roomID, userID)
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return
	case err != nil:
		obslog.L().Warn("ws_leave_error", zap.String("room_id", roomID), zap.String("user_id", userID), zap.Error(err))
		return
	case r == nil:
		h.toAll(roomdto.EventRoomDeleted, func(string) any { return roomdto.RoomDeleted{RoomID: roomID} })
	default:
		h.broadcastRoom(r)
	}
}

func (h *Hub) broadcastRoom(r *room.Room) {
	h.toRoom(r.ID, roomdto.EventRoomUpdated, func(viewer string) any { return h.view.room(r, viewer) })
}

func (h *Hub) handleStart(ctx context.Context, c *conn, u session.User, reset bool) {
	var (
		r   *room.Room
		err error
	)
	if reset {
		r, err = h.rooms.Reset(ctx, u.RoomID, u.ID)
	} else {
		r, err = h.rooms.Start(ctx, u.RoomID, u.ID)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.toRoom(r.ID, roomdto.EventGameStarted, func(viewer string) any {
		return roomdto.GameStarted{Room: h.view.room(r, viewer)}
	})
}

func (h *Hub) handleMove(ctx context.Context, c *conn, u session.User, req roomdto.MakeMoveRequest) {
	out, err := h.rooms.MakeMove(ctx, u.RoomID, u.ID, game.MoveRequest{
		Action:    req.Action,
		X:         req.X,
		Y:         req.Y,
		SpellType: req.SpellType,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if !out.Result.Success {
		msg := h.text("errors."+string(out.Result.Code), nil, out.Result.Error)
		h.sendError(c, msg, string(out.Result.Code))
		return
	}
	r := out.Room
	if out.Ended {
		h.toRoom(r.ID, roomdto.EventGameEnded, func(viewer string) any {
			return roomdto.GameEnded{
				Room:   h.view.room(r, viewer),
				Winner: r.GameState.WinnerID(),
				IsDraw: r.GameState.Drawn(),
			}
		})
		return
	}
	h.toRoom(r.ID, roomdto.EventStateUpdated, func(viewer string) any {
		return roomdto.StateUpdated{GameState: h.view.state(r.GameState, viewer)}
	})
}

type errEntry struct {
	err  error
	key  string
	code string
	data map[string]any
}

var roomErrors = []errEntry{
	{room.ErrRoomNotFound, "room.not_found", "room_not_found", nil},
	{room.ErrRoomFull, "room.full", "room_full", nil},
	{room.ErrNotHost, "room.not_host", "not_host", nil},
	{room.ErrNotEnoughPlayers, "room.not_enough_players", "not_enough_players", map[string]any{"Min": 2}},
	{room.ErrAlreadyPlaying, "room.already_playing", "already_playing", nil},
	{room.ErrNotPlaying, "room.not_playing", "not_playing", nil},
	{room.ErrRoomLimit, "room.limit", "room_limit", nil},
	{room.ErrBusy, "room.busy", "busy", nil},
}

// fail turns err into a localised game:error frame.
func (h *Hub) fail(c *conn, err error) {
	if code := domain.CodeOf(err); code != "" {
		h.sendError(c, h.text("errors."+string(code), nil, err.Error()), string(code))
		return
	}
	for _, e := range roomErrors {
		if errors.Is(err, e.err) {
			h.sendError(c, h.text(e.key, e.data, err.Error()), e.code)
			return
		}
	}
	obslog.L().Error("ws_handler_error", zap.String("conn_id", c.id), zap.Error(err))
	h.sendError(c, h.text("transport.internal", nil, "internal error"), "internal")
}
