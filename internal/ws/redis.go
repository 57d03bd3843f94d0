package ws

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	simredis "github.com/playmatatu/particles/internal/redis"
)

// StartFrameSubscriber rebroadcasts frames published on the shared channel
// by any instance to this instance's hub.
func StartFrameSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; frame subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, simredis.FramesChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", simredis.FramesChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					log.Printf("[WS] %s subscription closed", simredis.FramesChannel)
					return
				}
				hub.Broadcast([]byte(msg.Payload))
			}
		}
	}()
}
