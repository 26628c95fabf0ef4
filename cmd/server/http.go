package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/gomoku"
	"github.com/park285/cheese-rooms/internal/obslog"
	"github.com/park285/cheese-rooms/internal/render"
	"github.com/park285/cheese-rooms/internal/room"
	"github.com/park285/cheese-rooms/internal/stats"
	"github.com/park285/cheese-rooms/pkg/roomdto"
)

type api struct {
	rooms     *room.Manager
	standings stats.Repository
	boards    *render.Renderer
	now       func() time.Time
}

func (a *api) routes(ws http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.HandleFunc("GET /health", a.health)
	mux.HandleFunc("GET /rooms", a.listRooms)
	mux.HandleFunc("GET /rooms/{id}/board.png", a.boardPNG)
	mux.HandleFunc("GET /players/{id}/standing", a.standing)
	return mux
}

// roomSummary is the lobby view of a room; match state stays on the websocket.
type roomSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	GameType   domain.GameType `json:"gameType"`
	Status     room.Status     `json:"status"`
	HostID     string          `json:"hostId"`
	Players    []domain.Player `json:"players"`
	MaxPlayers int             `json:"maxPlayers"`
	CreatedAt  int64           `json:"createdAt"`
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, roomdto.Health{Status: "ok", Timestamp: a.now().UnixMilli()})
}

func (a *api) listRooms(w http.ResponseWriter, r *http.Request) {
	list, err := a.rooms.List(r.Context())
	if err != nil {
		obslog.L().Error("http_list_rooms_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]roomSummary, 0, len(list))
	for _, rm := range list {
		out = append(out, roomSummary{
			ID:         rm.ID,
			Name:       rm.Name,
			GameType:   rm.GameType,
			Status:     rm.Status,
			HostID:     rm.HostID,
			Players:    rm.Players,
			MaxPlayers: rm.MaxPlayers,
			CreatedAt:  rm.CreatedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) boardPNG(w http.ResponseWriter, r *http.Request) {
	rm, err := a.rooms.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, room.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		obslog.L().Error("http_board_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rm.GameType != domain.GameGomoku {
		writeError(w, http.StatusBadRequest, "board snapshots exist only for gomoku rooms")
		return
	}
	s, ok := rm.GameState.(*gomoku.State)
	if !ok {
		writeError(w, http.StatusNotFound, "game not started")
		return
	}
	png, err := a.boards.RenderPNG(r.Context(), s)
	if err != nil {
		obslog.L().Error("http_board_render_error", zap.String("room_id", rm.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (a *api) standing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	list, err := a.standings.Standings(r.Context(), id)
	if err != nil {
		obslog.L().Error("http_standing_error", zap.String("player_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*stats.Standing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"playerId": id, "standings": list})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// cors echoes allow-listed origins. An empty list allows any origin.
func cors(allow []string, next http.Handler) http.Handler {
	allowSet := map[string]struct{}{}
	for _, o := range allow {
		if o != "" {
			allowSet[o] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			_, ok := allowSet[origin]
			if ok || len(allowSet) == 0 {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
