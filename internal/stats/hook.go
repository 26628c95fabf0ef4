package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/obslog"
	"github.com/park285/cheese-rooms/internal/room"
)

// Hook returns a room finish hook that records every finished match in repo.
func Hook(repo Repository) room.FinishHook {
	return func(ctx context.Context, r *room.Room) {
		res, err := FromRoom(r, time.Now())
		if err != nil {
			obslog.L().Warn("standings_skip", zap.String("room_id", r.ID), zap.Error(err))
			return
		}
		if err := repo.RecordMatch(ctx, res); err != nil {
			obslog.L().Error("standings_persist_error", zap.String("room_id", r.ID), zap.Error(err))
			return
		}
		obslog.L().Info("standings_persist",
			zap.String("room_id", r.ID),
			zap.String("winner", res.Winner),
			zap.Bool("draw", res.Draw),
			zap.Int("players", len(res.Players)),
		)
	}
}

func domainGameType(s string) domain.GameType {
	if t, ok := domain.ParseGameType(s); ok {
		return t
	}
	return domain.GameType(s)
}
