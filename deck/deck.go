package deck

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Suit string

const (
	Clubs  Suit = "clubs"
	Cups   Suit = "cups"
	Gold   Suit = "gold"
	Swords Suit = "swords"
)

var (
	Suits = []Suit{Clubs, Cups, Gold, Swords}
	Ranks = []int{1, 2, 3, 4, 5, 6, 7, 10, 11, 12}
)

var ErrInvalidCard = errors.New("invalid card")

// Card is a rank/suit pair. Its text form is "<rank> <suit>", e.g. "12 swords".
type Card struct {
	Rank int
	Suit Suit
}

func (c Card) String() string {
	return fmt.Sprintf("%d %s", c.Rank, c.Suit)
}

func (c Card) MarshalText() ([]byte, error) {
	if !validRank(c.Rank) || !validSuit(c.Suit) {
		return nil, fmt.Errorf("%w: %d %q", ErrInvalidCard, c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	card, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// ParseCard reads a card token. Leading/trailing whitespace is ignored but the
// rank and suit must be separated by exactly one space.
func ParseCard(token string) (Card, error) {
	parts := strings.Split(strings.TrimSpace(token), " ")
	if len(parts) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, token)
	}

	rank, err := strconv.Atoi(parts[0])
	if err != nil || !validRank(rank) {
		return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCard, token)
	}

	suit := Suit(parts[1])
	if !validSuit(suit) {
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidCard, token)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// AllCards returns the 40-card universe ordered by suit, then rank.
func AllCards() []Card {
	cards := make([]Card, 0, len(Suits)*len(Ranks))
	for _, s := range Suits {
		for _, r := range Ranks {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return cards
}

type Result int

const (
	Draw Result = iota
	AWins
	BWins
)

func (r Result) String() string {
	return []string{"draw", "a", "b"}[r]
}

// Compare decides a turn between two cards. Suit never breaks a tie.
func Compare(a, b Card) Result {
	switch {
	case a.Rank > b.Rank:
		return AWins
	case b.Rank > a.Rank:
		return BWins
	default:
		return Draw
	}
}

// Dealer draws random cards. It is safe for concurrent use.
type Dealer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDealer constructs a Dealer with the provided rng or a time-seeded default.
func NewDealer(rng *rand.Rand) *Dealer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Dealer{rng: rng}
}

// Sample returns n distinct cards from pool, leaving pool untouched. If pool
// holds fewer than n cards, all of them are returned in random order.
func (d *Dealer) Sample(pool []Card, n int) []Card {
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return []Card{}
	}

	d.mu.Lock()
	idx := d.rng.Perm(len(pool))[:n]
	d.mu.Unlock()

	out := make([]Card, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

// Pick returns one random card from pool.
func (d *Dealer) Pick(pool []Card) Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	return pool[d.rng.Intn(len(pool))]
}

func validRank(r int) bool {
	for _, v := range Ranks {
		if v == r {
			return true
		}
	}
	return false
}

func validSuit(s Suit) bool {
	for _, v := range Suits {
		if v == s {
			return true
		}
	}
	return false
}
