package ws

import (
	"context"
	"log"

	"github.com/playmatatu/particles/internal/engine"
)

// FramePublisher is satisfied by *redis.Publisher.
type FramePublisher interface {
	PublishFrame(ctx context.Context, frame []byte) error
}

// RunFramePump encodes every frame from frames and fans it out: through pub
// when set (each instance's subscriber rebroadcasts), else straight to hub.
// It returns when ctx is done.
func RunFramePump(ctx context.Context, frames <-chan *engine.Frame, hub *Hub, pub FramePublisher) {
	log.Printf("[WS] frame pump started (redis=%v)", pub != nil)
	for {
		select {
		case <-ctx.Done():
			log.Println("[WS] frame pump stopping")
			return
		case f := <-frames:
			data, err := EncodeFrame(f)
			if err != nil {
				log.Printf("[WS] encode frame %d: %v", f.Step, err)
				continue
			}
			if pub != nil {
				err := pub.PublishFrame(ctx, data)
				if err == nil {
					continue
				}
				log.Printf("[WS] publish frame %d failed, broadcasting locally: %v", f.Step, err)
			}
			hub.Broadcast(data)
		}
	}
}
