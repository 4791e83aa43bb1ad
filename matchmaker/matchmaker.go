package matchmaker

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"golang.org/x/exp/slices"
)

const (
	codeLength = 6
	codeChars  = "abcdefghijklmnopqrstuvwxyz"

	// maxMintAttempts bounds code generation; with 26^6 codes it is only hit
	// when the registry is broken or the generator is rigged.
	maxMintAttempts = 64
)

var ErrNoFreeCode = errors.New("could not mint an unused room code")

// Registry tracks which room codes are in use.
type Registry interface {
	Reserve(ctx context.Context, code string) (bool, error)
}

// Pair is two connections matched into a freshly minted room.
type Pair[T comparable] struct {
	RoomID string
	First  T
	Second T
}

// Matchmaker pairs waiting connections in arrival order.
type Matchmaker[T comparable] struct {
	mu       sync.Mutex
	queue    []T
	registry Registry
	newCode  func() (string, error)
}

func New[T comparable](registry Registry) *Matchmaker[T] {
	return &Matchmaker[T]{
		queue:    []T{},
		registry: registry,
		newCode:  RandomCode,
	}
}

// WithCodeGenerator swaps the room code source.
func (m *Matchmaker[T]) WithCodeGenerator(gen func() (string, error)) *Matchmaker[T] {
	m.newCode = gen
	return m
}

// Enqueue adds h to the waiting queue. When two or more connections are
// waiting, the two oldest are removed and returned as a Pair with a newly
// reserved room code; otherwise the returned Pair is nil.
func (m *Matchmaker[T]) Enqueue(ctx context.Context, h T) (*Pair[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(m.queue, h) {
		m.queue = append(m.queue, h)
	}

	if len(m.queue) < 2 {
		return nil, nil
	}

	code, err := m.mint(ctx)
	if err != nil {
		// both stay at the head of the queue for the next attempt
		return nil, err
	}

	pair := &Pair[T]{
		RoomID: code,
		First:  m.queue[0],
		Second: m.queue[1],
	}
	m.queue = append(m.queue[:0:0], m.queue[2:]...)

	return pair, nil
}

// Remove drops h from the waiting queue. It reports whether h was queued.
func (m *Matchmaker[T]) Remove(h T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.Index(m.queue, h)
	if i < 0 {
		return false
	}
	m.queue = slices.Delete(m.queue, i, i+1)
	return true
}

// Len returns the number of waiting connections.
func (m *Matchmaker[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Matchmaker[T]) mint(ctx context.Context) (string, error) {
	for i := 0; i < maxMintAttempts; i++ {
		code, err := m.newCode()
		if err != nil {
			return "", err
		}

		ok, err := m.registry.Reserve(ctx, code)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", ErrNoFreeCode
}

// RandomCode returns six random lowercase letters.
func RandomCode() (string, error) {
	b := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeChars[n.Int64()]
	}
	return string(b), nil
}
