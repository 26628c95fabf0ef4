package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// memrepo is the in-memory repository used when no DATABASE_URL is configured.
type memrepo struct {
	mu   sync.RWMutex
	rows map[string]*Standing // playerID|gameType -> standing
}

func NewMemoryRepository() Repository {
	return &memrepo{rows: make(map[string]*Standing)}
}

func (m *memrepo) RecordMatch(_ context.Context, res MatchResult) error {
	if err := res.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range res.Players {
		key := m.key(p.ID, string(res.GameType))
		row, ok := m.rows[key]
		if !ok {
			row = &Standing{PlayerID: p.ID, GameType: res.GameType}
			m.rows[key] = row
		}
		w, l, d := res.outcome(p.ID)
		row.Name = p.Name
		row.Games++
		row.Wins += w
		row.Losses += l
		row.Draws += d
		if res.EndedAt.After(row.LastPlayed) {
			row.LastPlayed = res.EndedAt
		}
	}
	return nil
}

func (m *memrepo) Standings(_ context.Context, playerID string) ([]*Standing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Standing{}
	for _, row := range m.rows {
		if row.PlayerID == strings.TrimSpace(playerID) {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameType < out[j].GameType })
	return out, nil
}

func (m *memrepo) Close() error { return nil }

func (m *memrepo) key(playerID, gameType string) string {
	return strings.TrimSpace(playerID) + "|" + strings.TrimSpace(gameType)
}
