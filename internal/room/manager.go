package room

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/game"
	"github.com/park285/cheese-rooms/internal/obslog"
)

// FinishHook runs once for each match that reaches a winner or a draw.
type FinishHook func(ctx context.Context, r *Room)

// Manager keeps rooms in Redis. Every mutation runs inside WATCH on the room key,
// so concurrent moves in one room are applied one at a time.
type Manager struct {
	rdb      *redis.Client
	games    *game.Manager
	ttl      time.Duration
	retries  int
	maxRooms int
	now      func() time.Time

	mu    sync.RWMutex
	hooks []FinishHook
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithRetries bounds optimistic transaction attempts per operation.
func WithRetries(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retries = n
		}
	}
}

func WithMaxRooms(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRooms = n
		}
	}
}

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(rdb *redis.Client, games *game.Manager, opts ...Option) *Manager {
	m := &Manager{
		rdb:      rdb,
		games:    games,
		ttl:      24 * time.Hour,
		retries:  5,
		maxRooms: 500,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.games == nil {
		m.games = game.NewManager()
	}
	return m
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// OnFinish registers h to run after a match ends.
func (m *Manager) OnFinish(h FinishHook) {
	if h == nil {
		return
	}
	m.mu.Lock()
	m.hooks = append(m.hooks, h)
	m.mu.Unlock()
}

// Create opens a waiting room with host seated.
func (m *Manager) Create(ctx context.Context, name string, gameType domain.GameType, host domain.Player) (*Room, error) {
	if strings.TrimSpace(host.ID) == "" {
		return nil, ErrInvalidArgs
	}
	if gameType != domain.GameGomoku && gameType != domain.GameCbmfs {
		return nil, domain.ErrUnknownGameType
	}
	n, err := m.rdb.SCard(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if int(n) >= m.maxRooms {
		return nil, ErrRoomLimit
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = host.Name + "'s room"
	}
	now := m.now()
	r := &Room{
		ID:         uuid.NewString(),
		Name:       name,
		GameType:   gameType,
		Status:     StatusWaiting,
		HostID:     host.ID,
		Players:    []domain.Player{host},
		MaxPlayers: MaxPlayersFor(gameType),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	if _, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(r.ID), raw, m.ttl)
		pipe.SAdd(ctx, indexKey, r.ID)
		pipe.Expire(ctx, indexKey, m.ttl)
		return nil
	}); err != nil {
		return nil, err
	}
	obslog.L().Info("room_create",
		zap.String("room_id", r.ID),
		zap.String("game_type", string(r.GameType)),
		zap.String("host_id", r.HostID),
	)
	return r, nil
}

// Get returns the room or ErrRoomNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Room, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidArgs
	}
	return load(ctx, m.rdb, id)
}

// List returns rooms that are not finished, newest first. Expired ids are pruned from the index.
func (m *Manager) List(ctx context.Context) ([]*Room, error) {
	ids, err := m.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*Room, 0, len(ids))
	for _, id := range ids {
		r, err := load(ctx, m.rdb, id)
		if errors.Is(err, ErrRoomNotFound) {
			_ = m.rdb.SRem(ctx, indexKey, id).Err()
			continue
		}
		if err != nil {
			obslog.L().Warn("room_list_load_error", zap.String("room_id", id), zap.Error(err))
			continue
		}
		if r.Status == StatusFinished {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Join seats user. Joining a room one already sits in is a no-op.
func (m *Manager) Join(ctx context.Context, id string, user domain.Player) (*Room, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, ErrInvalidArgs
	}
	r, _, err := m.update(ctx, id, func(r *Room) (op, error) {
		if r.HasPlayer(user.ID) {
			return opNone, nil
		}
		if len(r.Players) >= r.MaxPlayers {
			return opNone, ErrRoomFull
		}
		r.Players = append(r.Players, user)
		return opSave, nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("room_join", zap.String("room_id", r.ID), zap.String("user_id", user.ID), zap.Int("players", len(r.Players)))
	return r, nil
}

// Leave removes userID. It returns (nil, nil) when the room became empty and was deleted.
// A departing host hands the room to the first remaining player.
func (m *Manager) Leave(ctx context.Context, id, userID string) (*Room, error) {
	r, applied, err := m.update(ctx, id, func(r *Room) (op, error) {
		kept := r.Players[:0:0]
		for _, p := range r.Players {
			if p.ID != userID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(r.Players) {
			return opNone, nil
		}
		r.Players = kept
		if len(kept) == 0 {
			return opDelete, nil
		}
		if r.HostID == userID {
			r.HostID = kept[0].ID
		}
		return opSave, nil
	})
	if err != nil {
		return nil, err
	}
	if applied == opDelete {
		obslog.L().Info("room_delete", zap.String("room_id", id), zap.String("reason", "empty"))
		return nil, nil
	}
	if applied == opSave {
		obslog.L().Info("room_leave", zap.String("room_id", r.ID), zap.String("user_id", userID), zap.String("host_id", r.HostID))
	}
	return r, nil
}

// Delete drops the room and its index entry.
func (m *Manager) Delete(ctx context.Context, id string) error {
	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, roomKey(id))
		pipe.SRem(ctx, indexKey, id)
		return nil
	})
	return err
}

// Start deals a new match. Only the host may start, and not while a match is running.
func (m *Manager) Start(ctx context.Context, id, userID string) (*Room, error) {
	return m.startGame(ctx, id, userID, false)
}

// Reset replaces the current match, running or not, with a fresh one.
func (m *Manager) Reset(ctx context.Context, id, userID string) (*Room, error) {
	return m.startGame(ctx, id, userID, true)
}

func (m *Manager) startGame(ctx context.Context, id, userID string, reset bool) (*Room, error) {
	r, _, err := m.update(ctx, id, func(r *Room) (op, error) {
		if r.HostID != userID {
			return opNone, ErrNotHost
		}
		if !reset && r.Status == StatusPlaying {
			return opNone, ErrAlreadyPlaying
		}
		if len(r.Players) < 2 {
			return opNone, ErrNotEnoughPlayers
		}
		s, err := m.games.CreateGame(r.GameType, r.Players)
		if err != nil {
			return opNone, err
		}
		r.GameState = s
		r.Status = StatusPlaying
		return opSave, nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("room_game_start",
		zap.String("room_id", r.ID),
		zap.String("game_type", string(r.GameType)),
		zap.Int("players", len(r.Players)),
		zap.Bool("reset", reset),
	)
	return r, nil
}

// MakeMove applies req for userID to the room's match. Engine rejections come back
// in Result with a nil error; the stored room is then left as it was.
func (m *Manager) MakeMove(ctx context.Context, id, userID string, req game.MoveRequest) (*MoveOutcome, error) {
	var (
		res   game.Result
		ended bool
	)
	r, _, err := m.update(ctx, id, func(r *Room) (op, error) {
		ended = false
		if r.GameState == nil || r.Status != StatusPlaying {
			return opNone, ErrNotPlaying
		}
		res = m.games.MakeMove(r.GameState, userID, req)
		if !res.Success {
			return opNone, nil
		}
		r.GameState = res.State
		if res.State.Finished() {
			r.Status = StatusFinished
			ended = true
		}
		return opSave, nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		obslog.L().Debug("room_move_rejected", zap.String("room_id", r.ID), zap.String("user_id", userID), zap.String("code", string(res.Code)))
		return &MoveOutcome{Room: r, Result: res}, nil
	}
	obslog.L().Info("room_move",
		zap.String("room_id", r.ID),
		zap.String("user_id", userID),
		zap.String("action", req.Action),
		zap.String("current", res.State.Current()),
		zap.Bool("ended", ended),
	)
	if ended {
		m.runHooks(ctx, r)
	}
	return &MoveOutcome{Room: r, Result: res, Ended: ended}, nil
}

func (m *Manager) runHooks(ctx context.Context, r *Room) {
	m.mu.RLock()
	hooks := append([]FinishHook(nil), m.hooks...)
	m.mu.RUnlock()
	obslog.L().Info("room_game_end",
		zap.String("room_id", r.ID),
		zap.String("winner", r.GameState.WinnerID()),
		zap.Bool("draw", r.GameState.Drawn()),
	)
	for _, h := range hooks {
		h(ctx, r)
	}
}

type op int

const (
	opNone op = iota
	opSave
	opDelete
)

// update loads the room under WATCH, lets fn mutate it and commits the result.
// A concurrent write aborts the transaction and fn is retried on fresh data.
func (m *Manager) update(ctx context.Context, id string, fn func(r *Room) (op, error)) (*Room, op, error) {
	if strings.TrimSpace(id) == "" {
		return nil, opNone, ErrInvalidArgs
	}
	key := roomKey(id)
	var (
		out     *Room
		applied op
	)
	txf := func(tx *redis.Tx) error {
		r, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		act, err := fn(r)
		if err != nil {
			return err
		}
		switch act {
		case opSave:
			r.UpdatedAt = m.now()
			raw, err := json.Marshal(r)
			if err != nil {
				return err
			}
			// the index lives at least as long as any room it lists
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, raw, m.ttl)
				pipe.SAdd(ctx, indexKey, id)
				pipe.Expire(ctx, indexKey, m.ttl)
				return nil
			})
			if err != nil {
				return err
			}
		case opDelete:
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				pipe.SRem(ctx, indexKey, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		out, applied = r, act
		return nil
	}

	for attempt := 0; attempt < m.retries; attempt++ {
		err := m.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			// concurrent update detected
			obslog.L().Debug("room_tx_retry", zap.String("room_id", id), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, opNone, err
		}
		return out, applied, nil
	}
	return nil, opNone, ErrBusy
}
