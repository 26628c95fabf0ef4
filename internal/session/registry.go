package session

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/park285/cheese-rooms/internal/domain"
)

const (
	MaxNameRunes = 24
	DefaultName  = "Player"
)

var ErrInvalidArgs = errors.New("invalid arguments")

// User is a logged-in connection. ID is the connection id.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar,omitempty"`
	RoomID   string    `json:"roomId,omitempty"`
	IsOnline bool      `json:"isOnline"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Player is the identity handed to rooms and engines.
func (u User) Player() domain.Player { return domain.Player{ID: u.ID, Name: u.Name} }

// Registry is the in-memory user table of one server process.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*User
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*User), now: time.Now}
}

// Login creates or replaces the user bound to connection id.
func (r *Registry) Login(id, name, avatar string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidArgs
	}
	u := &User{
		ID:       id,
		Name:     NormalizeName(name),
		Avatar:   strings.TrimSpace(avatar),
		IsOnline: true,
		JoinedAt: r.now(),
	}
	r.mu.Lock()
	r.users[id] = u
	r.mu.Unlock()
	return *u, nil
}

func (r *Registry) Get(id string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// SetRoom records the room id the user sits in; "" clears it.
func (r *Registry) SetRoom(id, roomID string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, false
	}
	u.RoomID = roomID
	return *u, true
}

// Remove drops the user and returns its last known record.
func (r *Registry) Remove(id string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, false
	}
	delete(r.users, id)
	u.IsOnline = false
	return *u, true
}

// All returns every user ordered by login time.
func (r *Registry) All() []User {
	r.mu.RLock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// InRoom lists users currently seated in roomID.
func (r *Registry) InRoom(roomID string) []User {
	var out []User
	for _, u := range r.All() {
		if u.RoomID == roomID {
			out = append(out, u)
		}
	}
	return out
}

var stripInvisible = runes.Remove(runes.Predicate(func(c rune) bool {
	return unicode.IsControl(c) || unicode.Is(unicode.Cf, c)
}))

// NormalizeName composes to NFC, removes control and format runes, trims, and caps
// the length at MaxNameRunes. An empty result becomes DefaultName.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFC, stripInvisible)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Join(strings.Fields(out), " ")
	if utf8.RuneCountInString(out) > MaxNameRunes {
		out = strings.TrimSpace(string([]rune(out)[:MaxNameRunes]))
	}
	if out == "" {
		return DefaultName
	}
	return out
}

// FoldName lowercases and strips accents so that "Émile" and "emile" compare equal.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
