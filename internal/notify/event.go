package notify

import (
	"context"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-rooms/internal/cbmfs"
	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/obslog"
	"github.com/park285/cheese-rooms/internal/room"
)

const EventMatchFinished = "match_finished"

// MatchFinished is the webhook payload sent when a room's match ends.
type MatchFinished struct {
	Event      string          `json:"event"`
	RoomID     string          `json:"roomId"`
	RoomName   string          `json:"roomName"`
	GameType   domain.GameType `json:"gameType"`
	Winner     string          `json:"winner,omitempty"`
	IsDraw     bool            `json:"isDraw,omitempty"`
	Players    []domain.Player `json:"players"`
	Scores     map[string]int  `json:"scores,omitempty"`
	Rounds     int             `json:"rounds,omitempty"`
	FinishedAt int64           `json:"finishedAt"`
}

func EventFromRoom(r *room.Room, at time.Time) MatchFinished {
	ev := MatchFinished{
		Event:      EventMatchFinished,
		RoomID:     r.ID,
		RoomName:   r.Name,
		GameType:   r.GameType,
		Players:    append([]domain.Player(nil), r.Players...),
		FinishedAt: at.UnixMilli(),
	}
	if r.GameState != nil {
		ev.Winner = r.GameState.WinnerID()
		ev.IsDraw = r.GameState.Drawn()
	}
	if s, ok := r.GameState.(*cbmfs.State); ok {
		ev.Scores = maps.Clone(s.Scores)
		ev.Rounds = s.Round
	}
	return ev
}

// Hook returns a room finish hook that posts the event in the background so that
// the move path never waits on the webhook.
func Hook(c *Client) room.FinishHook {
	return func(_ context.Context, r *room.Room) {
		ev := EventFromRoom(r, time.Now())
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := c.Send(ctx, ev); err != nil {
				obslog.L().Warn("webhook_send_error", zap.String("room_id", ev.RoomID), zap.Error(err))
				return
			}
			obslog.L().Info("webhook_sent", zap.String("room_id", ev.RoomID), zap.String("winner", ev.Winner))
		}()
	}
}
