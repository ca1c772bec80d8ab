package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"priceharvester/internal/models"
)

// RunField is the stream entry field holding the base64 encoded JSON run
const RunField = "run"

// RedisPublisher appends runs to a Redis stream trimmed to an approximate
// maximum length
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int64
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int64) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
	}
}

// Publish adds run to the stream
func (p *RedisPublisher) Publish(ctx context.Context, run models.HarvestRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			RunField:   base64.StdEncoding.EncodeToString(payload),
			"run_id":   strconv.FormatInt(run.ID, 10),
			"products": strconv.FormatUint(run.Summary.TotalProducts, 10),
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = p.streamMaxLength
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish run: %w", err)
	}
	return nil
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// DecodeRun reverses the encoding used by Publish
func DecodeRun(value string) (models.HarvestRun, error) {
	var run models.HarvestRun
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return run, fmt.Errorf("failed to decode run payload: %w", err)
	}
	if err := json.Unmarshal(raw, &run); err != nil {
		return run, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return run, nil
}
