package cbmfs

import (
	"maps"

	"github.com/park285/cheese-rooms/internal/domain"
)

const (
	MaxHealth   = 6
	HandSize    = 5
	TargetScore = 8
	MaxLogSize  = 18
)

// secretDeckSize maps player count to the number of cards set aside as secrets.
var secretDeckSize = map[int]int{2: 12, 3: 6, 4: 4, 5: 4}

const defaultSecretDeckSize = 4

func secretCountFor(players int) int {
	if n, ok := secretDeckSize[players]; ok {
		return n
	}
	return defaultSecretDeckSize
}

// RoundReason names what ended a round.
type RoundReason string

const (
	ReasonAllSpellsUsed RoundReason = "all_spells_used"
	ReasonDefeatedOther RoundReason = "defeated_other"
	ReasonSelfDefeated  RoundReason = "self_defeated"
)

// RoundReport describes a resolved round. Health is the snapshot taken after the
// resolution rule was applied and before the next round reset it.
type RoundReport struct {
	Round   int            `json:"round"`
	Reason  RoundReason    `json:"reason"`
	Actor   string         `json:"actor"`
	Health  map[string]int `json:"health"`
	Awarded map[string]int `json:"awarded"`
	Summary string         `json:"summary"`
}

// State is the card duel variant of the game state.
type State struct {
	domain.Header
	Players          []string           `json:"players"`
	PlayerNames      map[string]string  `json:"playerNames"`
	TurnOrder        []string           `json:"turnOrder"`
	Round            int                `json:"round"`
	Health           map[string]int     `json:"health"`
	Scores           map[string]int     `json:"scores"`
	Hands            map[string][]Spell `json:"hands"`
	DrawPile         []Spell            `json:"drawPile"`
	DiscardPile      []Spell            `json:"discardPile"`
	SecretDeck       []Spell            `json:"secretDeck"`
	CollectedSecrets map[string]int     `json:"collectedSecrets"`
	LastCastSpell    Spell              `json:"lastCastSpell,omitempty"`
	ActionLog        []string           `json:"actionLog"`
	LastRoundSummary string             `json:"lastRoundSummary,omitempty"`
	LastRound        *RoundReport       `json:"lastRound,omitempty"`
}

// Clone returns a deep copy. Every player keyed map is rebuilt from the roster so
// that missing entries read as zero values in the copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = append([]string(nil), s.Players...)
	out.TurnOrder = append([]string(nil), s.TurnOrder...)
	out.PlayerNames = maps.Clone(s.PlayerNames)
	if out.PlayerNames == nil {
		out.PlayerNames = map[string]string{}
	}
	out.Hands = make(map[string][]Spell, len(s.Players))
	out.Health = make(map[string]int, len(s.Players))
	out.Scores = make(map[string]int, len(s.Players))
	out.CollectedSecrets = make(map[string]int, len(s.Players))
	for _, id := range s.Players {
		out.Hands[id] = append([]Spell{}, s.Hands[id]...)
		out.Health[id] = s.Health[id]
		out.Scores[id] = s.Scores[id]
		out.CollectedSecrets[id] = s.CollectedSecrets[id]
	}
	out.DrawPile = append([]Spell{}, s.DrawPile...)
	out.DiscardPile = append([]Spell{}, s.DiscardPile...)
	out.SecretDeck = append([]Spell{}, s.SecretDeck...)
	out.ActionLog = append([]string{}, s.ActionLog...)
	if s.LastRound != nil {
		r := *s.LastRound
		r.Health = maps.Clone(s.LastRound.Health)
		r.Awarded = maps.Clone(s.LastRound.Awarded)
		out.LastRound = &r
	}
	return &out
}

// HasPlayer reports whether id is on the roster.
func (s *State) HasPlayer(id string) bool {
	for _, p := range s.Players {
		if p == id {
			return true
		}
	}
	return false
}

// HandCounts maps each player to the size of their hand.
func (s *State) HandCounts() map[string]int {
	out := make(map[string]int, len(s.Players))
	for _, id := range s.Players {
		out[id] = len(s.Hands[id])
	}
	return out
}

// CardsInPlay counts cards in hands, piles and the secret deck plus redeemed secrets.
// It equals DeckSize for every reachable state.
func (s *State) CardsInPlay() int {
	n := len(s.DrawPile) + len(s.DiscardPile) + len(s.SecretDeck)
	for _, id := range s.Players {
		n += len(s.Hands[id]) + s.CollectedSecrets[id]
	}
	return n
}

// Label returns the display name of id, falling back to a short form of the id.
func (s *State) Label(id string) string {
	if name := s.PlayerNames[id]; name != "" {
		return name
	}
	short := id
	if len(short) > 4 {
		short = short[:4]
	}
	return "Player" + short
}

func (s *State) appendLog(line string) {
	log := make([]string, 0, min(len(s.ActionLog)+1, MaxLogSize))
	log = append(log, line)
	log = append(log, s.ActionLog...)
	if len(log) > MaxLogSize {
		log = log[:MaxLogSize]
	}
	s.ActionLog = log
}

func (s *State) damage(id string, amount int) {
	s.Health[id] = max(0, s.Health[id]-amount)
}

func (s *State) heal(id string, amount int) {
	s.Health[id] = min(MaxHealth, s.Health[id]+amount)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// neighbors returns the previous and next ids around id in order, wrapping.
func neighbors(order []string, id string) (prev, next string) {
	n := len(order)
	i := indexOf(order, id)
	if n == 0 || i < 0 {
		return id, id
	}
	return order[(i-1+n)%n], order[(i+1)%n]
}

func nextAfter(order []string, id string) string {
	_, next := neighbors(order, id)
	return next
}
