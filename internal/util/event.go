package util

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
)

func EncodeEnvelope(room string, event model.RoomEvent) ([]byte, error) {
	data, err := sonic.Marshal(event)
	if err != nil {
		return nil, err
	}

	return sonic.Marshal(model.Envelope{
		Event: event.EventName(),
		Room:  room,
		Data:  data,
	})
}

// DecodeEnvelope parses a socket frame into its envelope and typed event.
func DecodeEnvelope(frame []byte) (model.Envelope, model.RoomEvent, error) {
	var envelope model.Envelope
	err := sonic.Unmarshal(frame, &envelope)
	if err != nil {
		return envelope, nil, err
	}

	var event model.RoomEvent
	switch envelope.Event {
	case constant.EVENT_NEW_COMMENT:
		var payload model.NewCommentEvent
		err = sonic.Unmarshal(envelope.Data, &payload)
		event = payload
	case constant.EVENT_NEW_REPLY_COMMENT:
		var payload model.NewReplyCommentEvent
		err = sonic.Unmarshal(envelope.Data, &payload)
		event = payload
	case constant.EVENT_POST_LIKED:
		var payload model.PostLikedEvent
		err = sonic.Unmarshal(envelope.Data, &payload)
		event = payload
	case constant.EVENT_COMMENT_LIKED:
		var payload model.CommentLikedEvent
		err = sonic.Unmarshal(envelope.Data, &payload)
		event = payload
	case constant.EVENT_NOTIFICATION:
		var payload model.NotificationEvent
		err = sonic.Unmarshal(envelope.Data, &payload)
		event = payload
	case constant.EVENT_JOINED_POST:
		var payload model.JoinedPostEvent
		err = sonic.Unmarshal(envelope.Data, &payload)
		event = payload
	case constant.EVENT_JOINED_USER:
		var payload model.JoinedUserEvent
		err = sonic.Unmarshal(envelope.Data, &payload)
		event = payload
	default:
		return envelope, nil, fmt.Errorf("unknown event %q", envelope.Event)
	}

	if err != nil {
		return envelope, nil, err
	}

	return envelope, event, nil
}
