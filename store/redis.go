package store

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/judgegodwins/pericon-server/models"
	"github.com/judgegodwins/pericon-server/util"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds how often an optimistic transaction is replayed after
// another writer touched the same room key.
const maxTxRetries = 16

// RedisStore keeps rooms as JSON documents under room:<id>. Writes go through
// WATCH/MULTI so concurrent writers from other processes cannot lose updates,
// and a local per-room lock keeps this process's handlers from racing each
// other.
type RedisStore struct {
	rdb   *redis.Client
	ttl   time.Duration
	locks *util.KeyedMutex
	now   func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb:   rdb,
		ttl:   ttl,
		locks: util.NewKeyedMutex(),
		now:   time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Room, error) {
	data, err := s.rdb.Get(ctx, util.GetRoomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRoom(data)
}

func (s *RedisStore) GetOrCreate(ctx context.Context, id string) (*models.Room, error) {
	return s.Update(ctx, id, func(*models.Room) error { return nil })
}

func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (*models.Room, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	roomKey := util.GetRoomKey(id)
	activeKey := util.GetActiveRoomKey(id)

	var committed *models.Room

	txf := func(tx *redis.Tx) error {
		room := models.NewRoom(id)

		data, err := tx.Get(ctx, roomKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if room, err = decodeRoom(data); err != nil {
				return err
			}
		}

		if err := fn(room); err != nil {
			return err
		}

		room.UpdatedAt = s.now()
		b, err := json.Marshal(room)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roomKey, b, s.ttl)
			pipe.Set(ctx, activeKey, 1, s.ttl)
			return nil
		})
		if err == nil {
			committed = room
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, roomKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return committed, nil
	}

	return nil, ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, util.GetRoomKey(id), util.GetActiveRoomKey(id)).Err()
}

func (s *RedisStore) Reserve(ctx context.Context, code string) (bool, error) {
	return s.rdb.SetNX(ctx, util.GetActiveRoomKey(code), 1, s.ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, code string) error {
	return s.rdb.Del(ctx, util.GetActiveRoomKey(code)).Err()
}

// Sweep is a no-op: room and registry keys expire on their own.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func decodeRoom(data []byte) (*models.Room, error) {
	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	if room.Players == nil {
		room.Players = make(map[string]*models.Player)
	}
	if room.Seats == nil {
		room.Seats = []string{}
	}
	return &room, nil
}
