package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/judgegodwins/pericon-server/deck"
	"github.com/judgegodwins/pericon-server/models"
	"github.com/judgegodwins/pericon-server/store"
	"github.com/judgegodwins/pericon-server/util"
)

const (
	HandSize        = 3
	TurnsPerRound   = 3
	TurnsToWinRound = 2
)

// Service runs the per-room game state machine. Every operation is a single
// atomic store update, so the two players of a room never interleave.
type Service struct {
	store     store.Store
	dealer    *deck.Dealer
	maxPoints int
}

// NewService constructs a Service. A nil dealer gets a time-seeded default.
func NewService(st store.Store, maxPoints int, dealer *deck.Dealer) *Service {
	if dealer == nil {
		dealer = deck.NewDealer(nil)
	}
	return &Service{
		store:     st,
		dealer:    dealer,
		maxPoints: maxPoints,
	}
}

// ValidateUsername checks a display name before it is used to join.
func ValidateUsername(name string) error {
	if err := util.Validate.Var(name, "required,max=32,ne=draw"); err != nil {
		return ErrInvalidUsername
	}
	return nil
}

// Join seats name in the room, creating the room and the player on first
// sight, and deals a hand if the player has none.
func (s *Service) Join(ctx context.Context, roomID, name string) (*Outcome, error) {
	if err := ValidateUsername(name); err != nil {
		return nil, err
	}

	room, err := s.store.Update(ctx, roomID, func(r *models.Room) error {
		p, exists := r.Players[name]
		if !exists {
			var ok bool
			if p, ok = r.AddPlayer(name); !ok {
				return ErrRoomFull
			}
			if r.MiddleCard == nil && r.IsFull() {
				s.startRound(r)
			}
		}

		if len(p.Hand) == 0 {
			p.Hand = s.dealer.Sample(deck.AllCards(), HandSize)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	out.toSender(EventRoundCards, room.Players[name].Hand)
	out.toRoom(EventMiddleCard, room.MiddleCardToken())
	out.toRoom(EventUsernames, room.Names())
	return out, nil
}

// UseCard plays token from name's hand and resolves the turn once both
// players have played it.
func (s *Service) UseCard(ctx context.Context, roomID, name, token string) (*Outcome, error) {
	card, err := deck.ParseCard(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCard, token)
	}

	var out *Outcome

	_, err = s.store.Update(ctx, roomID, func(r *models.Room) error {
		// the store may replay fn, start from a clean outcome each time
		out = &Outcome{}

		p, ok := r.Players[name]
		if !ok {
			return ErrUnknownPlayer
		}
		if r.Finished {
			return ErrGameOver
		}

		opp, ok := r.Opponent(name)
		if !ok || r.MiddleCard == nil {
			return ErrWaitingForOpponent
		}
		if !p.HasCard(card) {
			return ErrCardNotInHand
		}
		if len(p.CardsPlayedThisRound) > len(opp.CardsPlayedThisRound) {
			return ErrAlreadyPlayed
		}

		p.Play(card)

		played, oppPlayed := len(p.CardsPlayedThisRound), len(opp.CardsPlayedThisRound)
		if played == oppPlayed && played > 0 {
			s.resolveTurn(r, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// MoreCards re-deals name's hand and, with both players seated, a new middle
// card for the room. While the opponent's card for the current turn is still
// unanswered the middle card stays, so that card is not lost.
func (s *Service) MoreCards(ctx context.Context, roomID, name string) (*Outcome, error) {
	room, err := s.store.Update(ctx, roomID, func(r *models.Room) error {
		p, ok := r.Players[name]
		if !ok {
			return ErrUnknownPlayer
		}
		if r.Finished {
			return ErrGameOver
		}

		p.Hand = s.dealer.Sample(deck.AllCards(), HandSize)
		if r.IsFull() && !turnPending(r) {
			s.startRound(r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	out.toSender(EventRoundCards, room.Players[name].Hand)
	out.toRoom(EventMiddleCard, room.MiddleCardToken())
	return out, nil
}

// MiddleCard reports the room's middle card to the sender without touching
// any state. An unknown room reports "".
func (s *Service) MiddleCard(ctx context.Context, roomID string) (*Outcome, error) {
	token := ""

	room, err := s.store.Get(ctx, roomID)
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
	case err != nil:
		return nil, err
	default:
		token = room.MiddleCardToken()
	}

	out := &Outcome{}
	out.toSender(EventMiddleCard, token)
	return out, nil
}

// Room returns a snapshot of the room record.
func (s *Service) Room(ctx context.Context, roomID string) (*models.Room, error) {
	return s.store.Get(ctx, roomID)
}

// startRound deals a fresh middle card and clears both players' turn state.
func (s *Service) startRound(r *models.Room) {
	mc := s.dealer.Pick(deck.AllCards())
	r.MiddleCard = &mc
	for _, p := range r.Players {
		p.CurrentCard = nil
		p.Ready = false
	}
}

func (s *Service) resolveTurn(r *models.Room, out *Outcome) {
	r.Turn++
	out.toRoom(EventTurnPlayedCards, r.CurrentCards())

	seated := r.SeatedPlayers()
	a, b := seated[0], seated[1]

	turnWinner := Draw
	switch deck.Compare(*a.CurrentCard, *b.CurrentCard) {
	case deck.AWins:
		a.TurnWins++
		turnWinner = a.Name
	case deck.BWins:
		b.TurnWins++
		turnWinner = b.Name
	}

	if r.Turn < TurnsPerRound {
		out.toRoom(EventTurnWinner, turnWinner)
		return
	}

	r.Round++

	roundWinner := Draw
	for _, p := range seated {
		if p.TurnWins >= TurnsToWinRound {
			p.RoundWins++
			roundWinner = p.Name
			break
		}
	}

	for _, p := range seated {
		if p.RoundWins >= s.maxPoints {
			r.Finished = true
			out.toRoom(EventGameWinner, p.Name)
			out.DisconnectRoom = true
			return
		}
	}

	out.toRoom(EventRoundPlayedCards, r.RoundCards())
	out.toRoom(EventRoundWinner, roundWinner)

	r.Turn = 0
	for _, p := range seated {
		p.ResetRound()
	}
	out.toRoom(EventPoints, r.Points())
}

// turnPending reports whether one player has played into a turn the other
// has not answered yet.
func turnPending(r *models.Room) bool {
	seated := r.SeatedPlayers()
	if len(seated) < models.MaxPlayers {
		return false
	}
	return len(seated[0].CardsPlayedThisRound) != len(seated[1].CardsPlayedThisRound)
}
