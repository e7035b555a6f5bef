package broadcast

import (
	"context"
	"testing"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleJoinAndLeavePost(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := hub.Register("s1", "alice")
	postId := uuid.NewString()

	err := hub.Handle(member, model.InboundMessage{Event: constant.EVENT_JOIN_POST, Data: postId})
	require.NoError(t, err)
	require.Equal(t, 1, hub.MemberCount(PostRoom(postId)))

	err = hub.Handle(member, model.InboundMessage{Event: constant.EVENT_LEAVE_POST, Data: postId})
	require.NoError(t, err)
	require.Equal(t, 0, hub.MemberCount(PostRoom(postId)))

	err = hub.Handle(member, model.InboundMessage{Event: constant.EVENT_LEAVE_POST, Data: postId})
	require.NoError(t, err)
}

func TestHandleJoinUserOnlyOwnRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := hub.Register("s1", "alice")

	err := hub.Handle(member, model.InboundMessage{Event: constant.EVENT_JOIN_USER, Data: "bob"})
	require.ErrorIs(t, err, ErrForbiddenRoom)
	require.Equal(t, 0, hub.MemberCount(UserRoom("bob")))

	err = hub.Handle(member, model.InboundMessage{Event: constant.EVENT_JOIN_USER, Data: "alice"})
	require.NoError(t, err)
	require.Equal(t, 1, hub.MemberCount(UserRoom("alice")))
}

func TestHandleRejectsBadFrames(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := hub.Register("s1", "alice")

	require.Error(t, hub.Handle(member, model.InboundMessage{Event: constant.EVENT_JOIN_POST, Data: "not-a-uuid"}))
	require.Error(t, hub.Handle(member, model.InboundMessage{Event: "typing", Data: "x"}))
	require.Empty(t, hub.Rooms(member))
}

func TestJoinIsAcknowledgedAfterMembership(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := hub.Register("s1", "alice")
	postId := uuid.NewString()

	require.NoError(t, hub.Handle(member, model.InboundMessage{Event: constant.EVENT_JOIN_POST, Data: postId}))
	require.NoError(t, hub.Publish(context.Background(), PostRoom(postId), model.PostLikedEvent{ArticleId: postId, Emoticons: []string{"bob"}}))

	envelope, event, err := util.DecodeEnvelope(<-member.Send())
	require.NoError(t, err)
	require.Equal(t, PostRoom(postId), envelope.Room)
	require.Equal(t, model.JoinedPostEvent{ArticleId: postId}, event)

	_, event, err = util.DecodeEnvelope(<-member.Send())
	require.NoError(t, err)
	require.Equal(t, constant.EVENT_POST_LIKED, event.EventName())

	require.NoError(t, hub.Handle(member, model.InboundMessage{Event: constant.EVENT_JOIN_USER, Data: "alice"}))
	envelope, event, err = util.DecodeEnvelope(<-member.Send())
	require.NoError(t, err)
	require.Equal(t, UserRoom("alice"), envelope.Room)
	require.Equal(t, model.JoinedUserEvent{UserId: "alice"}, event)
}

func TestRejectedJoinIsNotAcknowledged(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := hub.Register("s1", "alice")

	require.Error(t, hub.Handle(member, model.InboundMessage{Event: constant.EVENT_JOIN_USER, Data: "bob"}))
	require.Empty(t, member.Send())
}
