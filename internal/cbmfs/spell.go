package cbmfs

import (
	"slices"
	"strings"
)

// Spell is a card type. Its rarity doubles as the number of copies in the deck and as
// the casting-order rank inside one turn.
type Spell string

const (
	AncientDragon Spell = "ancient_dragon"
	DarkGhost     Spell = "dark_ghost"
	SweetDream    Spell = "sweet_dream"
	Owl           Spell = "owl"
	Thunderstorm  Spell = "thunderstorm"
	Blizzard      Spell = "blizzard"
	Fireball      Spell = "fireball"
	Potion        Spell = "potion"
)

// Spells lists every card type from rarest to commonest.
var Spells = []Spell{AncientDragon, DarkGhost, SweetDream, Owl, Thunderstorm, Blizzard, Fireball, Potion}

var rarity = map[Spell]int{
	AncientDragon: 1,
	DarkGhost:     2,
	SweetDream:    3,
	Owl:           4,
	Thunderstorm:  5,
	Blizzard:      6,
	Fireball:      7,
	Potion:        8,
}

var spellNames = map[Spell]string{
	AncientDragon: "🐉 Ancient Dragon",
	DarkGhost:     "👻 Dark Ghost",
	SweetDream:    "💕 Sweet Dream",
	Owl:           "🦉 Owl",
	Thunderstorm:  "⛈️ Thunderstorm",
	Blizzard:      "🌨️ Blizzard",
	Fireball:      "🔥 Fireball",
	Potion:        "🧪 Potion",
}

// DeckSize is the number of cards in a freshly built deck.
const DeckSize = 36 // 1+2+...+8

// ParseSpell accepts the wire name of a spell.
func ParseSpell(s string) (Spell, bool) {
	sp := Spell(strings.TrimSpace(s))
	return sp, sp.Valid()
}

func (s Spell) Valid() bool {
	_, ok := rarity[s]
	return ok
}

// Rarity returns the copies-in-deck rank, or 0 for an unknown spell.
func (s Spell) Rarity() int { return rarity[s] }

func (s Spell) DisplayName() string {
	if name, ok := spellNames[s]; ok {
		return name
	}
	return string(s)
}

func buildDeck() []Spell {
	deck := make([]Spell, 0, DeckSize)
	for _, sp := range Spells {
		for range sp.Rarity() {
			deck = append(deck, sp)
		}
	}
	return deck
}

// sortHand orders cards by rarity, then by name.
func sortHand(cards []Spell) {
	slices.SortStableFunc(cards, func(a, b Spell) int {
		if d := a.Rarity() - b.Rarity(); d != 0 {
			return d
		}
		return strings.Compare(string(a), string(b))
	})
}
