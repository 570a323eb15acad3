// Package redisstore provides a Redis implementation of the record store.
// Each partition key maps onto one Redis hash; sort keys are hash fields.
package redisstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/tilvane/accountd/internal/config"
	"github.com/tilvane/accountd/internal/infrastructure/records"
	"github.com/tilvane/accountd/pkg/errors"
)

const keyPrefix = "rec:"

// Store is a Redis-backed record store.
type Store struct {
	client *redis.Client
}

// NewFromConfig connects to Redis and verifies the connection.
func NewFromConfig(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return New(client), nil
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func hashKey(id string) string { return keyPrefix + id }

func (s *Store) Get(ctx context.Context, id, sk string) (*records.Record, error) {
	data, err := s.client.HGet(ctx, hashKey(id), sk).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.ErrRecordNotFound
		}
		return nil, errors.ErrInternal.WithCause(err)
	}
	return &records.Record{ID: id, SK: sk, Data: data}, nil
}

func (s *Store) Create(ctx context.Context, rec *records.Record, overwrite bool) error {
	if overwrite {
		if err := s.client.HSet(ctx, hashKey(rec.ID), rec.SK, rec.Data).Err(); err != nil {
			return errors.ErrInternal.WithCause(err)
		}
		return nil
	}
	set, err := s.client.HSetNX(ctx, hashKey(rec.ID), rec.SK, rec.Data).Result()
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	if !set {
		return errors.ErrConflict
	}
	return nil
}

func (s *Store) Update(ctx context.Context, rec *records.Record) error {
	exists, err := s.client.HExists(ctx, hashKey(rec.ID), rec.SK).Result()
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	if !exists {
		return errors.ErrRecordNotFound
	}
	if err := s.client.HSet(ctx, hashKey(rec.ID), rec.SK, rec.Data).Err(); err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id, sk string) error {
	removed, err := s.client.HDel(ctx, hashKey(id), sk).Result()
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	if removed == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

func (s *Store) QueryPrefix(ctx context.Context, id, prefix string) ([]*records.Record, error) {
	fields, err := s.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	out := make([]*records.Record, 0, len(fields))
	for sk, data := range fields {
		if !strings.HasPrefix(sk, prefix) {
			continue
		}
		out = append(out, &records.Record{ID: id, SK: sk, Data: []byte(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SK < out[j].SK })
	return out, nil
}
