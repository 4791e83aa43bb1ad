package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/judgegodwins/pericon-server/deck"
	"github.com/judgegodwins/pericon-server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func forEachStore(t *testing.T, run func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		run(t, NewMemoryStore(time.Hour))
	})
	t.Run("redis", func(t *testing.T) {
		s, _ := newRedisStore(t, time.Hour)
		run(t, s)
	})
}

func TestGetOrCreate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Get(ctx, "abcdef")
		require.ErrorIs(t, err, ErrRoomNotFound)

		room, err := s.GetOrCreate(ctx, "abcdef")
		require.NoError(t, err)
		require.Equal(t, "abcdef", room.ID)
		require.Empty(t, room.Players)
		require.Nil(t, room.MiddleCard)

		got, err := s.Get(ctx, "abcdef")
		require.NoError(t, err)
		require.Equal(t, "abcdef", got.ID)
	})
}

func TestUpdateCommitsAndRoundTrips(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		mc := deck.Card{Rank: 11, Suit: deck.Cups}

		_, err := s.Update(ctx, "room1", func(r *models.Room) error {
			p, _ := r.AddPlayer("ana")
			p.Hand = []deck.Card{{Rank: 1, Suit: deck.Gold}, {Rank: 12, Suit: deck.Swords}}
			p.RoundWins = 1
			r.MiddleCard = &mc
			r.Turn = 2
			return nil
		})
		require.NoError(t, err)

		room, err := s.Get(ctx, "room1")
		require.NoError(t, err)
		require.Equal(t, []string{"ana"}, room.Seats)
		require.Equal(t, []deck.Card{{Rank: 1, Suit: deck.Gold}, {Rank: 12, Suit: deck.Swords}}, room.Players["ana"].Hand)
		require.Equal(t, 1, room.Players["ana"].RoundWins)
		require.Equal(t, mc, *room.MiddleCard)
		require.Equal(t, 2, room.Turn)
		require.False(t, room.UpdatedAt.IsZero())
	})
}

func TestUpdateErrorDiscardsChanges(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		boom := errors.New("boom")

		_, err := s.Update(ctx, "room1", func(r *models.Room) error {
			r.AddPlayer("ana")
			return nil
		})
		require.NoError(t, err)

		_, err = s.Update(ctx, "room1", func(r *models.Room) error {
			r.AddPlayer("beto")
			r.Turn = 3
			r.Players["ana"].TurnWins = 2
			return boom
		})
		require.ErrorIs(t, err, boom)

		room, err := s.Get(ctx, "room1")
		require.NoError(t, err)
		require.Equal(t, []string{"ana"}, room.Seats)
		require.Zero(t, room.Turn)
		require.Zero(t, room.Players["ana"].TurnWins)
	})
}

func TestUpdateIsAtomic(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		const writers = 50

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, "room1", func(r *models.Room) error {
					r.Turn++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		room, err := s.Get(ctx, "room1")
		require.NoError(t, err)
		require.Equal(t, writers, room.Turn)
	})
}

func TestUpdateSnapshotIsPrivate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		snap, err := s.Update(ctx, "room1", func(r *models.Room) error {
			r.AddPlayer("ana")
			return nil
		})
		require.NoError(t, err)

		snap.Players["ana"].RoundWins = 99

		room, err := s.Get(ctx, "room1")
		require.NoError(t, err)
		require.Zero(t, room.Players["ana"].RoundWins)
	})
}

func TestReserveRelease(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		ok, err := s.Reserve(ctx, "qwerty")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Reserve(ctx, "qwerty")
		require.NoError(t, err)
		require.False(t, ok, "code already active")

		require.NoError(t, s.Release(ctx, "qwerty"))

		ok, err = s.Reserve(ctx, "qwerty")
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestUpdateClaimsRoomCode(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Update(ctx, "qwerty", func(r *models.Room) error {
			r.AddPlayer("ana")
			return nil
		})
		require.NoError(t, err)

		ok, err := s.Reserve(ctx, "qwerty")
		require.NoError(t, err)
		require.False(t, ok, "a room opened by id is in the registry")

		_, err = s.Update(ctx, "zxcvbn", func(r *models.Room) error {
			return errors.New("rejected")
		})
		require.Error(t, err)

		ok, err = s.Reserve(ctx, "zxcvbn")
		require.NoError(t, err)
		require.True(t, ok, "a rejected first update claims nothing")
	})
}

func TestDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		ok, err := s.Reserve(ctx, "qwerty")
		require.NoError(t, err)
		require.True(t, ok)
		_, err = s.GetOrCreate(ctx, "qwerty")
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "qwerty"))

		_, err = s.Get(ctx, "qwerty")
		require.ErrorIs(t, err, ErrRoomNotFound)

		ok, err = s.Reserve(ctx, "qwerty")
		require.NoError(t, err)
		require.True(t, ok, "deleting a room frees its code")
	})
}

func TestRoomsAreIndependent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.Update(ctx, fmt.Sprintf("room%d", i), func(r *models.Room) error {
					r.Round = i
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		for i := 0; i < 10; i++ {
			room, err := s.Get(ctx, fmt.Sprintf("room%d", i))
			require.NoError(t, err)
			require.Equal(t, i, room.Round)
		}
	})
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	start := time.Now()
	s.now = func() time.Time { return start }

	_, err := s.GetOrCreate(ctx, "old")
	require.NoError(t, err)
	ok, err := s.Reserve(ctx, "old")
	require.NoError(t, err)
	require.False(t, ok, "the room holds its code")
	ok, err = s.Reserve(ctx, "orphan")
	require.NoError(t, err)
	require.True(t, ok)

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = s.GetOrCreate(ctx, "fresh")
	require.NoError(t, err)

	removed, err := s.Sweep(ctx, start.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = s.Get(ctx, "old")
	require.ErrorIs(t, err, ErrRoomNotFound)
	_, err = s.Get(ctx, "fresh")
	require.NoError(t, err)

	ok, err = s.Reserve(ctx, "old")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Reserve(ctx, "orphan")
	require.NoError(t, err)
	require.True(t, ok, "stale reservation without a room is released")
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Minute)

	ok, err := s.Reserve(ctx, "qwerty")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = s.GetOrCreate(ctx, "qwerty")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = s.Get(ctx, "qwerty")
	require.ErrorIs(t, err, ErrRoomNotFound)

	ok, err = s.Reserve(ctx, "qwerty")
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := s.Sweep(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, removed)
}
