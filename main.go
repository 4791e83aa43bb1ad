package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/judgegodwins/pericon-server/api"
	"github.com/judgegodwins/pericon-server/game"
	"github.com/judgegodwins/pericon-server/store"
	"github.com/judgegodwins/pericon-server/tokens"
	"github.com/judgegodwins/pericon-server/util"
	"github.com/redis/go-redis/v9"
)

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()

	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		st  store.Store
		rdb *redis.Client
	)

	if config.RedisAddress != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})

		// check redis connection status
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal(err)
		}

		st = store.NewRedisStore(rdb, config.RoomTTL)
		log.Println("keeping rooms in redis at", config.RedisAddress)
	} else {
		st = store.NewMemoryStore(config.RoomTTL)
		go janitor(ctx, st, config.RoomTTL/4)
		log.Println("keeping rooms in memory")
	}

	maker, err := tokens.NewMaker(config.TokenKind, config.TokenSymmetricKey)

	if err != nil {
		log.Fatal(err)
	}

	svc := game.NewService(st, config.MaxPoints, nil)
	server := api.NewServer(config, svc, st, maker, rdb)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Println("error shutting down:", err)
		}
	}()

	log.Printf("listening on :%v", config.Port)

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// janitor evicts idle rooms from stores that don't expire keys themselves.
func janitor(ctx context.Context, st store.Store, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := st.Sweep(ctx, now)
			if err != nil {
				log.Println("error sweeping rooms:", err)
				continue
			}
			if n > 0 {
				log.Printf("evicted %d idle rooms", n)
			}
		}
	}
}
