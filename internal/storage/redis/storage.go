package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.ResultStore = (*Storage)(nil)

func (s *Storage) SaveResult(ctx context.Context, result *model.GameResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, resultKey(result.GameID), data, s.cfg.ResultTTL)
	pipe.ZAdd(ctx, resultsIndexKey(), redis.Z{
		Score:  float64(result.CompletedAt.UnixMilli()),
		Member: string(result.GameID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetResult(ctx context.Context, id model.GameID) (*model.GameResult, error) {
	data, err := s.client.Get(ctx, resultKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrResultNotFound
		}
		return nil, err
	}

	var result model.GameResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.GameResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := s.client.ZRevRange(ctx, resultsIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.GameResult, 0, len(ids))
	var expired []any
	for _, id := range ids {
		r, err := s.GetResult(ctx, model.GameID(id))
		if errors.Is(err, model.ErrResultNotFound) {
			// the result's TTL ran out; drop it from the index
			expired = append(expired, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, resultsIndexKey(), expired...).Err(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
