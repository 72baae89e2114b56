package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// CeremonyState is the live, non-authoritative mirror of an election's
// ceremony progress. The store rows and the directory tree stay the source
// of truth; the cache exists so operators and other processes can observe a
// ceremony without hitting the database.
type CeremonyState struct {
	ElectionID string    `json:"election_id"`
	Step       string    `json:"step"`
	Detail     string    `json:"detail,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CeremonyCache mirrors ceremony progress and carries the out-of-band
// approval decision channel.
type CeremonyCache interface {
	SaveState(ctx context.Context, state *CeremonyState, ttl time.Duration) error
	GetState(ctx context.Context, electionID string) (*CeremonyState, error)
	PublishDecision(ctx context.Context, electionID string, payload []byte) error
	SubscribeDecisions(ctx context.Context, electionID string) (<-chan []byte, error)
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// RedisCache implements CeremonyCache on redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) SaveState(ctx context.Context, state *CeremonyState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "failed to marshal ceremony state")
	}

	key := "orchestra:ceremony:" + state.ElectionID
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save ceremony state")
	}

	return nil
}

func (c *RedisCache) GetState(ctx context.Context, electionID string) (*CeremonyState, error) {
	key := "orchestra:ceremony:" + electionID
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Wrapf(ErrNotFound, "ceremony state of election %s", electionID)
		}
		return nil, errors.Wrap(err, "failed to get ceremony state")
	}

	var state CeremonyState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal ceremony state")
	}

	return &state, nil
}

func (c *RedisCache) PublishDecision(ctx context.Context, electionID string, payload []byte) error {
	channel := "orchestra:decision:" + electionID
	if err := c.client.Publish(ctx, channel, payload).Err(); err != nil {
		return errors.Wrap(err, "failed to publish decision")
	}
	return nil
}

func (c *RedisCache) SubscribeDecisions(ctx context.Context, electionID string) (<-chan []byte, error) {
	channel := "orchestra:decision:" + electionID
	pubsub := c.client.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to subscribe")
	}

	ch := pubsub.Channel()
	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (c *RedisCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := "orchestra:lock:" + key
	ok, err := c.client.SetNX(ctx, lockKey, "1", ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire lock")
	}
	return ok, nil
}

func (c *RedisCache) ReleaseLock(ctx context.Context, key string) error {
	lockKey := "orchestra:lock:" + key
	if err := c.client.Del(ctx, lockKey).Err(); err != nil {
		return errors.Wrap(err, "failed to release lock")
	}
	return nil
}

// NoopCache satisfies CeremonyCache when redis is disabled.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) SaveState(context.Context, *CeremonyState, time.Duration) error { return nil }

func (NoopCache) GetState(_ context.Context, electionID string) (*CeremonyState, error) {
	return nil, errors.Wrapf(ErrNotFound, "ceremony state of election %s", electionID)
}

func (NoopCache) PublishDecision(context.Context, string, []byte) error { return nil }

func (NoopCache) SubscribeDecisions(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (NoopCache) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (NoopCache) ReleaseLock(context.Context, string) error { return nil }
