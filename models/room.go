package models

import (
	"time"

	"github.com/judgegodwins/pericon-server/deck"
	"github.com/samber/lo"
)

// MaxPlayers is the seat count of every room.
const MaxPlayers = 2

// Player is one participant of a room, keyed by display name.
type Player struct {
	Name                 string      `json:"name"`
	Hand                 []deck.Card `json:"cards"`
	CardsPlayedThisRound []deck.Card `json:"cards_round"`
	CurrentCard          *deck.Card  `json:"current_card,omitempty"`
	TurnWins             int         `json:"wins_turn"`
	RoundWins            int         `json:"wins_round"`
	Ready                bool        `json:"ready"`
}

// Room is the authoritative game record of one two-player session.
type Room struct {
	ID         string             `json:"id"`
	Players    map[string]*Player `json:"players"`
	Seats      []string           `json:"seats"`
	MiddleCard *deck.Card         `json:"middle_card,omitempty"`
	Turn       int                `json:"turn"`
	Round      int                `json:"round"`
	Finished   bool               `json:"finished"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// PlayedCard pairs a player with the card they put down.
type PlayedCard struct {
	Player string    `json:"player"`
	Card   deck.Card `json:"card"`
}

// Points is a player's accumulated round wins.
type Points struct {
	Player string `json:"player"`
	Points int    `json:"points"`
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Players: make(map[string]*Player),
		Seats:   []string{},
	}
}

func NewPlayer(name string) *Player {
	return &Player{
		Name:                 name,
		Hand:                 []deck.Card{},
		CardsPlayedThisRound: []deck.Card{},
	}
}

// IsFull reports whether both seats are taken.
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxPlayers
}

// AddPlayer seats a new player. It returns false if the name is taken or the
// room is full.
func (r *Room) AddPlayer(name string) (*Player, bool) {
	if _, exists := r.Players[name]; exists || r.IsFull() {
		return nil, false
	}

	p := NewPlayer(name)
	r.Players[name] = p
	r.Seats = append(r.Seats, name)
	return p, true
}

// Opponent returns the other seated player, if any.
func (r *Room) Opponent(name string) (*Player, bool) {
	for _, seat := range r.Seats {
		if seat != name {
			p, ok := r.Players[seat]
			return p, ok
		}
	}
	return nil, false
}

// Names lists the players in join order.
func (r *Room) Names() []string {
	return append([]string{}, r.Seats...)
}

// SeatedPlayers returns the players in join order.
func (r *Room) SeatedPlayers() []*Player {
	return lo.FilterMap(r.Seats, func(name string, _ int) (*Player, bool) {
		p, ok := r.Players[name]
		return p, ok
	})
}

// CurrentCards lists each player's card for the in-flight turn.
func (r *Room) CurrentCards() []PlayedCard {
	return lo.FilterMap(r.SeatedPlayers(), func(p *Player, _ int) (PlayedCard, bool) {
		if p.CurrentCard == nil {
			return PlayedCard{}, false
		}
		return PlayedCard{Player: p.Name, Card: *p.CurrentCard}, true
	})
}

// RoundCards lists every card played in the active round, player by player.
func (r *Room) RoundCards() []PlayedCard {
	return lo.FlatMap(r.SeatedPlayers(), func(p *Player, _ int) []PlayedCard {
		return lo.Map(p.CardsPlayedThisRound, func(c deck.Card, _ int) PlayedCard {
			return PlayedCard{Player: p.Name, Card: c}
		})
	})
}

func (r *Room) Points() []Points {
	return lo.Map(r.SeatedPlayers(), func(p *Player, _ int) Points {
		return Points{Player: p.Name, Points: p.RoundWins}
	})
}

// MiddleCardToken returns the middle card token, or "" before the first deal.
func (r *Room) MiddleCardToken() string {
	if r.MiddleCard == nil {
		return ""
	}
	return r.MiddleCard.String()
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	c := *r
	c.Seats = append([]string{}, r.Seats...)
	c.Players = make(map[string]*Player, len(r.Players))
	for name, p := range r.Players {
		c.Players[name] = p.Clone()
	}
	if r.MiddleCard != nil {
		mc := *r.MiddleCard
		c.MiddleCard = &mc
	}
	return &c
}

func (p *Player) Clone() *Player {
	c := *p
	c.Hand = append([]deck.Card{}, p.Hand...)
	c.CardsPlayedThisRound = append([]deck.Card{}, p.CardsPlayedThisRound...)
	if p.CurrentCard != nil {
		cc := *p.CurrentCard
		c.CurrentCard = &cc
	}
	return &c
}

// HasCard reports whether card is in the player's hand.
func (p *Player) HasCard(card deck.Card) bool {
	return lo.Contains(p.Hand, card)
}

// Play moves card from the hand to the played pile and makes it current.
// It returns false if the card is not in the hand.
func (p *Player) Play(card deck.Card) bool {
	i := lo.IndexOf(p.Hand, card)
	if i < 0 {
		return false
	}
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	p.CardsPlayedThisRound = append(p.CardsPlayedThisRound, card)
	p.CurrentCard = &card
	return true
}

// ResetRound clears per-round counters. Round wins are kept.
func (p *Player) ResetRound() {
	p.TurnWins = 0
	p.CardsPlayedThisRound = []deck.Card{}
	p.CurrentCard = nil
	p.Ready = false
}
