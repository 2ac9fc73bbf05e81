package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"air_quality_monitor/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second

	// keyspace events: K = keyspace channel, g = generic (DEL, EXPIRE), h = hash
	keyspaceEvents = "Kgh"
)

// NewRedisClient returns a configured go-redis client and validates the connection with PING.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisFeed treats a Redis hash as the record set: field = reading key,
// value = JSON record. Changes are picked up through keyspace notifications
// and answered with a full HGETALL.
type RedisFeed struct {
	client             *redis.Client
	db                 int
	enableNotification bool
	log                *logger.Logger
}

// Ensure implementation of Feed interface at compile time.
var _ Feed = (*RedisFeed)(nil)

// NewRedisFeed builds a feed. With enableNotification set, Subscribe turns on
// keyspace events for hashes on the server first.
func NewRedisFeed(client *redis.Client, db int, enableNotification bool, log *logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, db: db, enableNotification: enableNotification, log: log}
}

func keyspaceChannel(db int, key string) string {
	return fmt.Sprintf("__keyspace@%d__:%s", db, key)
}

// Subscribe delivers the current hash immediately and again after every
// change notification. Bursts of notifications collapse into one reload.
func (f *RedisFeed) Subscribe(ctx context.Context, path string, fn func(map[string]json.RawMessage)) (func() error, error) {
	if f.enableNotification {
		if err := f.client.ConfigSet(ctx, "notify-keyspace-events", keyspaceEvents).Err(); err != nil {
			return nil, fmt.Errorf("enable keyspace notifications: %w", err)
		}
	}

	ps := f.client.Subscribe(ctx, keyspaceChannel(f.db, path))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %q: %w", path, err)
	}
	initial, err := f.load(ctx, path)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	msgs := ps.Channel()

	go func() {
		defer close(done)
		fn(initial)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				drain(msgs)
				set, err := f.load(subCtx, path)
				if err != nil {
					if subCtx.Err() != nil {
						return
					}
					if f.log != nil {
						f.log.Warnw("redis_feed_reload_failed", "path", path, "err", err)
					}
					continue
				}
				if subCtx.Err() != nil {
					return
				}
				fn(set)
			}
		}
	}()

	return func() error {
		cancel()
		err := ps.Close()
		<-done
		return err
	}, nil
}

func (f *RedisFeed) load(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	values, err := f.client.HGetAll(ctx, path).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %q: %w", path, err)
	}
	set := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		set[k] = json.RawMessage(v)
	}
	return set, nil
}

func drain(msgs <-chan *redis.Message) {
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
