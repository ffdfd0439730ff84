package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/moonssword/dating-bot/internal/domain/model"
)

const cityOptionsPrefix = "city_options:"

var ErrCityOptionsExpired = errors.New("city options expired")

// CityCacheRepo parks geocoder search results between the prompt and
// the user's pick, keyed by a transient token so callback data stays
// within telegram's 64-byte limit.
type CityCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCityCacheRepo(client *goredis.Client, ttl time.Duration) *CityCacheRepo {
	return &CityCacheRepo{client: client, ttl: ttl}
}

func (r *CityCacheRepo) Put(ctx context.Context, options []model.Location) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	if len(options) == 0 {
		return "", fmt.Errorf("city options are empty")
	}

	payload, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("marshal city options: %w", err)
	}

	token := uuid.NewString()
	if err := r.client.Set(ctx, cityOptionsPrefix+token, payload, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("store city options: %w", err)
	}

	return token, nil
}

func (r *CityCacheRepo) Get(ctx context.Context, token string) ([]model.Location, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	payload, err := r.client.Get(ctx, cityOptionsPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCityOptionsExpired
		}
		return nil, fmt.Errorf("get city options: %w", err)
	}

	var options []model.Location
	if err := json.Unmarshal(payload, &options); err != nil {
		return nil, fmt.Errorf("unmarshal city options: %w", err)
	}

	return options, nil
}

func (r *CityCacheRepo) Delete(ctx context.Context, token string) error {
	if r.client == nil || token == "" {
		return nil
	}
	if err := r.client.Del(ctx, cityOptionsPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete city options: %w", err)
	}
	return nil
}
