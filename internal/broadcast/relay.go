package broadcast

import (
	"context"
	"strings"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay publishes room frames through Redis pub/sub so that every
// server process delivers them to its own local members.
type RedisRelay struct {
	Hub     *Hub
	DBCache *redis.Client
	Log     *zap.Logger
}

func NewRedisRelay(hub *Hub, dbCache *redis.Client, zap *zap.Logger) *RedisRelay {
	return &RedisRelay{
		Hub:     hub,
		DBCache: dbCache,
		Log:     zap,
	}
}

func (relay *RedisRelay) Publish(ctx context.Context, room string, event model.RoomEvent) error {
	frame, err := util.EncodeEnvelope(room, event)
	if err != nil {
		return err
	}

	return relay.DBCache.Publish(ctx, constant.REDIS_ROOM_CHANNEL+room, frame).Err()
}

// Run blocks until ctx is done, forwarding every relayed frame to the hub.
func (relay *RedisRelay) Run(ctx context.Context) error {
	pubsub := relay.DBCache.PSubscribe(ctx, constant.REDIS_ROOM_CHANNEL+"*")
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reading.
	_, err := pubsub.Receive(ctx)
	if err != nil {
		return err
	}

	relay.Log.Info("room relay subscribed")

	channel := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-channel:
			if !ok {
				return nil
			}

			room := strings.TrimPrefix(message.Channel, constant.REDIS_ROOM_CHANNEL)
			delivered := relay.Hub.Deliver(room, []byte(message.Payload))
			relay.Log.Debug("relayed room frame",
				zap.String("room", room),
				zap.Int("delivered", delivered),
			)
		}
	}
}
