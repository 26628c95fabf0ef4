package cbmfs

import (
	"fmt"

	"github.com/park285/cheese-rooms/internal/domain"
)

const (
	MinPlayers = 2
	MaxPlayers = 5
)

// Action selects the kind of move.
type Action string

const (
	ActionCast    Action = "cbmfs_cast"
	ActionEndTurn Action = "cbmfs_end_turn"
)

// Move is a single player request. Spell is only read for ActionCast.
type Move struct {
	Action Action
	Spell  Spell
}

// Engine applies card duel rules. It holds no match state; every call returns a new
// *State and leaves its input untouched.
type Engine struct {
	dice domain.Dice
}

// NewEngine builds an engine drawing shuffles and damage rolls from dice. A nil dice
// falls back to domain.NewDice.
func NewEngine(dice domain.Dice) *Engine {
	if dice == nil {
		dice = domain.NewDice()
	}
	return &Engine{dice: dice}
}

// New deals the first round for 2 to 5 players; the first listed player starts.
func (e *Engine) New(players []domain.Player) (*State, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, domain.Reject(domain.CodeInvalidPlayerCount,
			"card duel needs %d-%d players, got %d", MinPlayers, MaxPlayers, len(players))
	}
	ids := domain.PlayerIDs(players)
	names := make(map[string]string, len(players))
	scores := make(map[string]int, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
		scores[p.ID] = 0
	}
	return e.newRound(ids, names, scores, 1, ids[0], nil), nil
}

// Apply validates and applies m for playerID. Rejections return a *domain.RuleError.
func (e *Engine) Apply(s *State, playerID string, m Move) (*State, error) {
	if s == nil {
		return nil, domain.ErrInvalidAction
	}
	if s.Finished() {
		return nil, domain.ErrGameAlreadyEnded
	}
	if !s.HasPlayer(playerID) {
		return nil, domain.ErrNotInGame
	}
	if s.CurrentPlayer != playerID {
		return nil, domain.ErrNotYourTurn
	}

	switch m.Action {
	case ActionEndTurn:
		next := s.Clone()
		endTurn(next)
		return next, nil
	case ActionCast:
		if !m.Spell.Valid() {
			return nil, domain.Reject(domain.CodeInvalidAction, "unknown spell %q", string(m.Spell))
		}
		return e.cast(s, playerID, m.Spell)
	default:
		return nil, domain.Reject(domain.CodeInvalidAction, "unknown action %q", string(m.Action))
	}
}

func (e *Engine) cast(s *State, playerID string, spell Spell) (*State, error) {
	if s.LastCastSpell != "" && spell.Rarity() < s.LastCastSpell.Rarity() {
		return nil, domain.Reject(domain.CodeRarityOrderViolation,
			"cannot cast %s after %s", spell.DisplayName(), s.LastCastSpell.DisplayName())
	}

	next := s.Clone()
	hand := next.Hands[playerID]
	at := -1
	for i, c := range hand {
		if c == spell {
			at = i
			break
		}
	}

	if at < 0 {
		dmg := 1
		if spell == AncientDragon {
			dmg = domain.RollD3(e.dice)
		}
		next.damage(playerID, dmg)
		next.appendLog(fmt.Sprintf("❌ %s failed to cast %s and lost %d❤️", next.Label(playerID), spell.DisplayName(), dmg))
		next.LastCastSpell = ""
		if next.Health[playerID] <= 0 {
			return e.resolveRound(next, playerID, ReasonSelfDefeated), nil
		}
		endTurn(next)
		return next, nil
	}

	next.Hands[playerID] = append(hand[:at:at], hand[at+1:]...)
	next.DiscardPile = append(next.DiscardPile, spell)
	e.applyEffect(next, playerID, spell)
	next.appendLog(fmt.Sprintf("✨ %s cast %s", next.Label(playerID), spell.DisplayName()))
	next.LastCastSpell = spell

	if len(next.Hands[playerID]) == 0 {
		return e.resolveRound(next, playerID, ReasonAllSpellsUsed), nil
	}
	for _, id := range next.Players {
		if id != playerID && next.Health[id] <= 0 {
			return e.resolveRound(next, playerID, ReasonDefeatedOther), nil
		}
	}
	return next, nil
}

func (e *Engine) applyEffect(s *State, caster string, spell Spell) {
	switch spell {
	case AncientDragon:
		for _, id := range s.Players {
			if id != caster {
				s.damage(id, domain.RollD3(e.dice))
			}
		}
	case DarkGhost:
		for _, id := range s.Players {
			if id != caster {
				s.damage(id, 1)
			}
		}
		s.heal(caster, 1)
	case SweetDream:
		s.heal(caster, domain.RollD3(e.dice))
	case Owl:
		if len(s.SecretDeck) > 0 {
			s.SecretDeck = s.SecretDeck[1:]
			s.CollectedSecrets[caster]++
		}
	case Thunderstorm:
		prev, next := neighbors(s.TurnOrder, caster)
		if prev != caster {
			s.damage(prev, 1)
		}
		if next != caster && next != prev {
			s.damage(next, 1)
		}
	case Blizzard:
		if prev, _ := neighbors(s.TurnOrder, caster); prev != caster {
			s.damage(prev, 1)
		}
	case Fireball:
		if _, next := neighbors(s.TurnOrder, caster); next != caster {
			s.damage(next, 1)
		}
	case Potion:
		s.heal(caster, 1)
	}
}

// endTurn refills the current player's hand and passes the turn on. It mutates s.
func endTurn(s *State) {
	cur := s.CurrentPlayer
	drew := false
	for len(s.Hands[cur]) < HandSize && len(s.DrawPile) > 0 {
		s.Hands[cur] = append(s.Hands[cur], s.DrawPile[0])
		s.DrawPile = s.DrawPile[1:]
		drew = true
	}
	if drew {
		sortHand(s.Hands[cur])
	}

	s.CurrentPlayer = nextAfter(s.TurnOrder, cur)
	s.LastCastSpell = ""
	s.appendLog(fmt.Sprintf("➡️ %s's turn", s.Label(s.CurrentPlayer)))
}
