package wsapi

import (
	"time"

	"github.com/park285/cheese-rooms/internal/cbmfs"
	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/game"
	"github.com/park285/cheese-rooms/internal/room"
)

// roomView is a room as one viewer sees it.
type roomView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	GameType   domain.GameType `json:"gameType"`
	Status     room.Status     `json:"status"`
	HostID     string          `json:"hostId"`
	Players    []domain.Player `json:"players"`
	MaxPlayers int             `json:"maxPlayers"`
	CreatedAt  int64           `json:"createdAt"`
	UpdatedAt  int64           `json:"updatedAt"`
	GameState  any             `json:"gameState,omitempty"`
}

// cbmfsView hides every hand but the viewer's and reports hand sizes instead.
type cbmfsView struct {
	*cbmfs.State
	HandCounts map[string]int `json:"handCounts"`
}

type projector struct {
	hideHands bool
}

func (p projector) state(s game.State, viewer string) any {
	if s == nil {
		return nil
	}
	cs, ok := s.(*cbmfs.State)
	if !ok || !p.hideHands {
		return s
	}
	out := cs.Clone()
	for id := range out.Hands {
		if id != viewer {
			out.Hands[id] = []cbmfs.Spell{}
		}
	}
	return cbmfsView{State: out, HandCounts: cs.HandCounts()}
}

func (p projector) room(r *room.Room, viewer string) roomView {
	v := roomView{
		ID:         r.ID,
		Name:       r.Name,
		GameType:   r.GameType,
		Status:     r.Status,
		HostID:     r.HostID,
		Players:    r.Players,
		MaxPlayers: r.MaxPlayers,
		CreatedAt:  millis(r.CreatedAt),
		UpdatedAt:  millis(r.UpdatedAt),
	}
	if r.GameState != nil {
		v.GameState = p.state(r.GameState, viewer)
	}
	return v
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
