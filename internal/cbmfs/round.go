package cbmfs

import (
	"fmt"
	"maps"

	"github.com/park285/cheese-rooms/internal/domain"
)

// newRound deals a fresh round. scores and names are copied, never aliased.
func (e *Engine) newRound(players []string, names map[string]string, scores map[string]int, round int, starter string, last *RoundReport) *State {
	deck := buildDeck()
	domain.Shuffle(e.dice, deck)

	n := min(secretCountFor(len(players)), len(deck))
	secret := append([]Spell{}, deck[:n]...)
	deck = deck[n:]

	hands := make(map[string][]Spell, len(players))
	health := make(map[string]int, len(players))
	collected := make(map[string]int, len(players))
	carried := make(map[string]int, len(players))
	for _, id := range players {
		hands[id] = make([]Spell, 0, HandSize)
		health[id] = MaxHealth
		collected[id] = 0
		carried[id] = scores[id]
	}
	for range HandSize {
		for _, id := range players {
			if len(deck) == 0 {
				break
			}
			hands[id] = append(hands[id], deck[0])
			deck = deck[1:]
		}
	}
	for _, id := range players {
		sortHand(hands[id])
	}

	s := &State{
		Header: domain.Header{
			Type:          domain.GameCbmfs,
			CurrentPlayer: starter,
		},
		Players:          append([]string(nil), players...),
		PlayerNames:      maps.Clone(names),
		TurnOrder:        append([]string(nil), players...),
		Round:            round,
		Health:           health,
		Scores:           carried,
		Hands:            hands,
		DrawPile:         append([]Spell{}, deck...),
		DiscardPile:      []Spell{},
		SecretDeck:       secret,
		CollectedSecrets: collected,
		ActionLog:        []string{},
		LastRound:        last,
	}
	if s.PlayerNames == nil {
		s.PlayerNames = map[string]string{}
	}
	if last != nil {
		s.LastRoundSummary = last.Summary
		s.ActionLog = []string{"📣 Last round: " + last.Summary}
	}
	return s
}

// resolveRound scores the round that actor just ended and either freezes the match
// on a winner or deals the next round. s is owned by the caller and may be mutated.
func (e *Engine) resolveRound(s *State, actor string, reason RoundReason) *State {
	awarded := make(map[string]int, len(s.Players))
	award := func(id string, pts int) {
		s.Scores[id] += pts
		awarded[id] += pts
	}

	var summary string
	switch reason {
	case ReasonAllSpellsUsed:
		award(actor, 3)
		for _, id := range s.Players {
			if id != actor {
				s.Health[id] = 0
			}
		}
		summary = fmt.Sprintf("%s emptied their hand: +3.", s.Label(actor))
	case ReasonDefeatedOther:
		award(actor, 3)
		for _, id := range s.Players {
			if id != actor && s.Health[id] > 0 {
				award(id, 1)
			}
		}
		summary = fmt.Sprintf("%s defeated a rival: +3, other survivors +1.", s.Label(actor))
	case ReasonSelfDefeated:
		for _, id := range s.Players {
			if id != actor {
				award(id, 1)
			}
		}
		summary = fmt.Sprintf("%s fell to a failed cast: everyone else +1.", s.Label(actor))
	}

	for _, id := range s.Players {
		if secrets := s.CollectedSecrets[id]; s.Health[id] > 0 && secrets > 0 {
			award(id, secrets)
		}
	}

	report := &RoundReport{
		Round:   s.Round,
		Reason:  reason,
		Actor:   actor,
		Health:  maps.Clone(s.Health),
		Awarded: awarded,
		Summary: summary,
	}

	if winner := leader(s.Scores, s.TurnOrder); winner != "" {
		s.Winner = winner
		s.LastRoundSummary = summary
		s.LastRound = report
		s.LastCastSpell = ""
		s.appendLog("📣 Last round: " + summary)
		s.appendLog(fmt.Sprintf("🏆 %s reached %d points and wins!", s.Label(winner), TargetScore))
		return s
	}

	return e.newRound(s.Players, s.PlayerNames, s.Scores, s.Round+1, nextAfter(s.TurnOrder, actor), report)
}

// leader returns the first player in order holding the top score, once that score
// reaches TargetScore.
func leader(scores map[string]int, order []string) string {
	best, who := -1, ""
	for _, id := range order {
		if scores[id] > best {
			best, who = scores[id], id
		}
	}
	if best < TargetScore {
		return ""
	}
	return who
}
