package http

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/broadcast"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RoomController struct {
	Hub *broadcast.Hub
	Log *zap.Logger
}

func NewRoomController(hub *broadcast.Hub, zap *zap.Logger) *RoomController {
	return &RoomController{
		Hub: hub,
		Log: zap,
	}
}

// Serve runs one room socket. A single writer goroutine drains the member's
// queue; the read loop handles join and leave frames until disconnect.
func (controller *RoomController) Serve(conn *websocket.Conn) {
	userId := conn.Locals("userId").(uuid.UUID)
	member := controller.Hub.Register(uuid.NewString(), userId.String())
	log := controller.Log.With(zap.String("userId", member.UserId), zap.String("memberId", member.Id))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case frame := <-member.Send():
				err := conn.WriteMessage(websocket.TextMessage, frame)
				if err != nil {
					log.Debug("room socket write failed", zap.Error(err))
					_ = conn.Close()
					return
				}
			case <-member.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	log.Debug("room socket connected")

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var message model.InboundMessage
		err = sonic.Unmarshal(frame, &message)
		if err != nil {
			log.Debug("ignoring malformed room frame", zap.Error(err))
			continue
		}

		err = controller.Hub.Handle(member, message)
		if err != nil {
			log.Debug("room frame rejected", zap.String("event", message.Event), zap.Error(err))
		}
	}

	controller.Hub.LeaveAll(member)
	close(done)
	wg.Wait()

	log.Debug("room socket disconnected")
}
