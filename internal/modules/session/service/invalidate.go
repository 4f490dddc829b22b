package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// InvalidateChannel carries user ids whose cached session must be dropped
// because their profile was changed by another process.
const InvalidateChannel = "session_invalidate"

// PublishInvalidation asks every server to drop its session for userID.
// A nil client is a no-op.
func PublishInvalidation(ctx context.Context, rdb *redis.Client, userID uuid.UUID) error {
	if rdb == nil {
		return nil
	}
	return rdb.Publish(ctx, InvalidateChannel, userID.String()).Err()
}

// ListenInvalidations drops sessions named on InvalidateChannel until ctx ends.
func ListenInvalidations(ctx context.Context, rdb *redis.Client, sessions SessionService) {
	pubsub := rdb.Subscribe(ctx, InvalidateChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			userID, err := uuid.Parse(msg.Payload)
			if err != nil {
				log.Warn().Str("payload", msg.Payload).Msg("ignoring malformed session invalidation")
				continue
			}
			sessions.Drop(userID)
			log.Debug().Str("user_id", userID.String()).Msg("session invalidated")
		}
	}
}
