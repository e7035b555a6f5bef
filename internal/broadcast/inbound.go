package broadcast

import (
	"errors"
	"fmt"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/google/uuid"
)

var ErrForbiddenRoom = errors.New("cannot join another user's room")

// Handle applies one client frame to the member's room memberships. A join
// is acknowledged on the member's own socket after the membership exists,
// so a client that waits for the ack cannot miss a later publish.
func (hub *Hub) Handle(member *Member, message model.InboundMessage) error {
	switch message.Event {
	case constant.EVENT_JOIN_USER:
		if message.Data != member.UserId {
			return ErrForbiddenRoom
		}
		name := UserRoom(member.UserId)
		hub.Join(member, name)
		return hub.acknowledge(member, name, model.JoinedUserEvent{UserId: member.UserId})
	case constant.EVENT_JOIN_POST:
		_, err := uuid.Parse(message.Data)
		if err != nil {
			return fmt.Errorf("invalid post id %q", message.Data)
		}
		name := PostRoom(message.Data)
		hub.Join(member, name)
		return hub.acknowledge(member, name, model.JoinedPostEvent{ArticleId: message.Data})
	case constant.EVENT_LEAVE_POST:
		hub.Leave(member, PostRoom(message.Data))
	default:
		return fmt.Errorf("unknown event %q", message.Event)
	}

	return nil
}

func (hub *Hub) acknowledge(member *Member, name string, event model.RoomEvent) error {
	frame, err := util.EncodeEnvelope(name, event)
	if err != nil {
		return err
	}

	hub.offer(member, name, frame)

	return nil
}
