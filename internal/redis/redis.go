package redis

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Pub/sub channels shared by every instance.
const (
	FramesChannel = "sim_frames"
	StatsChannel  = "sim_stats"
)

// Connect establishes a connection to Redis. An empty URL disables fan-out
// and returns a nil client.
func Connect(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		log.Println("[REDIS] REDIS_URL not set; frames are broadcast locally only")
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	log.Printf("[REDIS] connected to %s", opt.Addr)
	return client, nil
}

// Publisher sends encoded frames and stats to the shared channels.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishFrame publishes an already encoded frame.
func (p *Publisher) PublishFrame(ctx context.Context, frame []byte) error {
	return p.rdb.Publish(ctx, FramesChannel, frame).Err()
}

// PublishStats publishes v as JSON.
func (p *Publisher) PublishStats(ctx context.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, StatsChannel, data).Err()
}
