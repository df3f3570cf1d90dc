package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/plant-eval/internal/evaluation"
)

// ErrMiss is returned by Get when nothing is cached for the type.
var ErrMiss = errors.New("cache miss")

type TemplateCache interface {
	Get(ctx context.Context, t evaluation.Type) (evaluation.Evaluation, error)
	Set(ctx context.Context, e evaluation.Evaluation) error
	Delete(ctx context.Context, t evaluation.Type) error
}

type redisTemplateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTemplateCache(client *redis.Client, ttl time.Duration) TemplateCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisTemplateCache{client: client, ttl: ttl}
}

func templateKey(t evaluation.Type) string { return "template:" + string(t) }

func (c *redisTemplateCache) Get(ctx context.Context, t evaluation.Type) (evaluation.Evaluation, error) {
	data, err := c.client.Get(ctx, templateKey(t)).Bytes()
	if errors.Is(err, redis.Nil) {
		return evaluation.Evaluation{}, ErrMiss
	}
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	var e evaluation.Evaluation
	err = json.Unmarshal(data, &e)
	return e, err
}

func (c *redisTemplateCache) Set(ctx context.Context, e evaluation.Evaluation) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, templateKey(e.Type), data, c.ttl).Err()
}

func (c *redisTemplateCache) Delete(ctx context.Context, t evaluation.Type) error {
	return c.client.Del(ctx, templateKey(t)).Err()
}

// Connect opens a redis client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
