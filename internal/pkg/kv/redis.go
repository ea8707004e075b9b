package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"majlis/internal/pkg/logx"
)

// change is the payload published on the change channel after every write.
type change struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Redis is a Store kept in Redis. Writes are followed by a PUBLISH on a channel shared by every
// process using the same prefix, so watchers in other processes see the change too.
type Redis struct {
	client  *redis.Client
	prefix  string
	channel string
	bus     *broadcaster
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	done    chan struct{}
	logger  zerolog.Logger
}

// OpenRedis connects to the Redis server at url and starts relaying change notifications. It
// returns once the server has confirmed the change channel subscription.
func OpenRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	connectCtx, cancelConnect := context.WithTimeout(ctx, 5*time.Second)
	defer cancelConnect()

	if err := client.Ping(connectCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	r, err := newRedis(connectCtx, client, prefix)
	if err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

func newRedis(ctx context.Context, client *redis.Client, prefix string) (*Redis, error) {
	relayCtx, cancel := context.WithCancel(context.Background())

	r := &Redis{
		client:  client,
		prefix:  prefix,
		channel: prefix + ":kv:changes",
		bus:     newBroadcaster(),
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logx.Component("kv.redis"),
	}

	r.pubsub = client.Subscribe(relayCtx, r.channel)

	// Changes published before the confirmation would never reach this process.
	if _, err := r.pubsub.Receive(ctx); err != nil {
		cancel()
		r.pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}

	go r.relay(relayCtx)

	return r, nil
}

func (r *Redis) key(key string) string {
	return r.prefix + ":kv:" + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return r.announce(ctx, change{Key: key, Value: value})
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	removed, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if removed == 0 {
		return nil
	}
	return r.announce(ctx, change{Key: key, Deleted: true})
}

func (r *Redis) Watch(key string, fn func(value string, ok bool)) Subscription {
	return r.bus.add(key, fn)
}

// Close stops the relay and closes the client.
func (r *Redis) Close() error {
	r.cancel()
	err := r.pubsub.Close()
	<-r.done

	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func (r *Redis) announce(ctx context.Context, c change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode kv change: %w", err)
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		// The value is stored; only the broadcast is lost.
		r.logger.Warn().Err(err).Str("key", c.Key).Msg("Failed to publish kv change")
	}
	return nil
}

// relay delivers changes received on the channel to local watchers until ctx is cancelled.
func (r *Redis) relay(ctx context.Context) {
	defer close(r.done)

	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var c change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				r.logger.Warn().Err(err).Msg("Dropping malformed kv change")
				continue
			}

			r.bus.publish(c.Key, c.Value, !c.Deleted)
		}
	}
}
