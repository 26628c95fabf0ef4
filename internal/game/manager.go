package game

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-rooms/internal/cbmfs"
	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/gomoku"
	"github.com/park285/cheese-rooms/internal/obslog"
)

const (
	ActionGomokuPlace = "gomoku_place"
	ActionCbmfsCast   = string(cbmfs.ActionCast)
	ActionCbmfsEnd    = string(cbmfs.ActionEndTurn)
)

// MoveRequest is the player submitted move. Which fields matter depends on Action.
type MoveRequest struct {
	Action    string `json:"action,omitempty"`
	X         *int   `json:"x,omitempty"`
	Y         *int   `json:"y,omitempty"`
	SpellType string `json:"spellType,omitempty"`
}

// Place builds a gomoku move request.
func Place(x, y int) MoveRequest {
	return MoveRequest{Action: ActionGomokuPlace, X: &x, Y: &y}
}

// Result is the outcome of MakeMove. On rejection State is the input state and
// Error/Code describe why.
type Result struct {
	Success bool             `json:"success"`
	State   State            `json:"state"`
	Error   string           `json:"error,omitempty"`
	Code    domain.ErrorCode `json:"code,omitempty"`
}

// Manager routes setup and moves to the engine of each game type.
type Manager struct {
	gomoku *gomoku.Engine
	cbmfs  *cbmfs.Engine
}

type Option func(*managerOptions)

type managerOptions struct {
	dice domain.Dice
	now  func() time.Time
}

// WithDice sets the random source of the card duel engine.
func WithDice(d domain.Dice) Option { return func(o *managerOptions) { o.dice = d } }

// WithClock sets the clock used for gomoku move timestamps.
func WithClock(now func() time.Time) Option { return func(o *managerOptions) { o.now = now } }

func NewManager(opts ...Option) *Manager {
	o := managerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	var gopts []gomoku.Option
	if o.now != nil {
		gopts = append(gopts, gomoku.WithClock(o.now))
	}
	return &Manager{
		gomoku: gomoku.NewEngine(gopts...),
		cbmfs:  cbmfs.NewEngine(o.dice),
	}
}

// CreateGame starts a match. Player count and game type problems are returned as
// *domain.RuleError.
func (m *Manager) CreateGame(t domain.GameType, players []domain.Player) (State, error) {
	switch t {
	case domain.GameGomoku:
		s, err := m.gomoku.New(players)
		if err != nil {
			return nil, err
		}
		return s, nil
	case domain.GameCbmfs:
		s, err := m.cbmfs.New(players)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, domain.Reject(domain.CodeUnknownGameType, "unknown game type %q", string(t))
	}
}

// MakeMove applies req for playerID. It never panics; any rejection leaves the
// returned State identical to s.
func (m *Manager) MakeMove(s State, playerID string, req MoveRequest) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			obslog.L().Error("game_move_panic",
				zap.String("player", playerID),
				zap.String("action", req.Action),
				zap.Any("panic", r))
			res = reject(s, domain.Reject(domain.CodeInvalidAction, "move could not be applied"))
		}
	}()

	var (
		next State
		err  error
	)
	switch v := s.(type) {
	case *gomoku.State:
		next, err = m.playGomoku(v, playerID, req)
	case *cbmfs.State:
		next, err = m.playCbmfs(v, playerID, req)
	default:
		err = domain.Reject(domain.CodeUnknownGameType, "no game in progress")
	}
	if err != nil {
		return reject(s, err)
	}
	return Result{Success: true, State: next}
}

func (m *Manager) playGomoku(s *gomoku.State, playerID string, req MoveRequest) (State, error) {
	action := strings.TrimSpace(req.Action)
	if action != "" && action != ActionGomokuPlace {
		return nil, domain.Reject(domain.CodeInvalidAction, "action %q is not valid for gomoku", action)
	}
	if req.X == nil || req.Y == nil {
		return nil, domain.Reject(domain.CodeInvalidAction, "gomoku moves need x and y")
	}
	next, err := m.gomoku.Play(s, playerID, *req.X, *req.Y)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (m *Manager) playCbmfs(s *cbmfs.State, playerID string, req MoveRequest) (State, error) {
	mv := cbmfs.Move{Action: cbmfs.Action(strings.TrimSpace(req.Action))}
	if mv.Action == cbmfs.ActionCast {
		// unknown spells are rejected by the engine after the turn checks
		mv.Spell, _ = cbmfs.ParseSpell(req.SpellType)
	}
	next, err := m.cbmfs.Apply(s, playerID, mv)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func reject(s State, err error) Result {
	code := domain.CodeOf(err)
	if code == "" {
		code = domain.CodeInvalidAction
	}
	return Result{Success: false, State: s, Error: err.Error(), Code: code}
}
