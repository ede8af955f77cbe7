package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

const (
	machineKeyPrefix  = "machine:"
	idempotencyKeyTTL = 24 * time.Hour

	fieldInserted    = "inserted"
	fieldChangeValue = "change_value"
	fieldTakenAt     = "taken_at"
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func productsKey(machineID string) string { return machineKeyPrefix + machineID + ":products" }
func coinsKey(machineID string) string    { return machineKeyPrefix + machineID + ":coins" }
func stateKey(machineID string) string    { return machineKeyPrefix + machineID + ":state" }

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// SaveSnapshot replaces the stored snapshot in a single MULTI/EXEC.
func (r *RedisAdapter) SaveSnapshot(ctx context.Context, machineID string, snap domain.Snapshot) error {
	products := make(map[string]any, len(snap.Products))
	for p, n := range snap.Products {
		products[p.String()] = n
	}
	coins := make(map[string]any, len(snap.Coins))
	for c, n := range snap.Coins {
		coins[c.String()] = n
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, productsKey(machineID), coinsKey(machineID), stateKey(machineID))
		if len(products) > 0 {
			pipe.HSet(ctx, productsKey(machineID), products)
		}
		if len(coins) > 0 {
			pipe.HSet(ctx, coinsKey(machineID), coins)
		}
		pipe.HSet(ctx, stateKey(machineID),
			fieldInserted, int64(snap.Inserted),
			fieldChangeValue, int64(snap.ChangeValue),
			fieldTakenAt, snap.TakenAt.UnixNano(),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *RedisAdapter) LoadSnapshot(ctx context.Context, machineID string) (*domain.Snapshot, error) {
	pipe := r.client.Pipeline()
	productsCmd := pipe.HGetAll(ctx, productsKey(machineID))
	coinsCmd := pipe.HGetAll(ctx, coinsKey(machineID))
	stateCmd := pipe.HGetAll(ctx, stateKey(machineID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	state := stateCmd.Val()
	if len(state) == 0 {
		return nil, nil
	}

	snap := &domain.Snapshot{
		Products: make(map[domain.Product]int),
		Coins:    make(map[domain.Coin]int),
	}
	for name, raw := range productsCmd.Val() {
		p, err := domain.ParseProduct(name)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: product %s count: %w", name, err)
		}
		snap.Products[p] = n
	}
	for name, raw := range coinsCmd.Val() {
		c, err := domain.ParseCoin(name)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: coin %s count: %w", name, err)
		}
		snap.Coins[c] = n
	}

	inserted, err := parseInt(state, fieldInserted)
	if err != nil {
		return nil, err
	}
	changeValue, err := parseInt(state, fieldChangeValue)
	if err != nil {
		return nil, err
	}
	takenAt, err := parseInt(state, fieldTakenAt)
	if err != nil {
		return nil, err
	}
	snap.Inserted = domain.Cents(inserted)
	snap.ChangeValue = domain.Cents(changeValue)
	snap.TakenAt = time.Unix(0, takenAt).UTC()

	return snap, nil
}

func parseInt(fields map[string]string, name string) (int64, error) {
	v, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: field %s: %w", name, err)
	}
	return v, nil
}
