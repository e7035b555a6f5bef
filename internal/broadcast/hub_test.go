package broadcast

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func likedEvent(postId string, likes ...string) model.PostLikedEvent {
	return model.PostLikedEvent{ArticleId: postId, Emoticons: likes}
}

func drain(member *Member) []model.RoomEvent {
	var events []model.RoomEvent
	for {
		select {
		case frame := <-member.Send():
			_, event, err := util.DecodeEnvelope(frame)
			if err != nil {
				panic(err)
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	alice := hub.Register("s1", "alice")
	bob := hub.Register("s2", "bob")
	carol := hub.Register("s3", "carol")

	hub.Join(alice, PostRoom("p1"))
	hub.Join(bob, PostRoom("p1"))
	hub.Join(carol, PostRoom("p2"))

	err := hub.Publish(context.Background(), PostRoom("p1"), likedEvent("p1", "alice"))
	require.NoError(t, err)

	require.Len(t, drain(alice), 1)
	require.Len(t, drain(bob), 1)
	require.Empty(t, drain(carol))
}

func TestJoinAndLeaveAreIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := hub.Register("s1", "alice")

	require.True(t, hub.Join(member, PostRoom("p1")))
	require.False(t, hub.Join(member, PostRoom("p1")))
	require.Equal(t, 1, hub.MemberCount(PostRoom("p1")))

	err := hub.Publish(context.Background(), PostRoom("p1"), likedEvent("p1"))
	require.NoError(t, err)
	require.Len(t, drain(member), 1)

	require.True(t, hub.Leave(member, PostRoom("p1")))
	require.False(t, hub.Leave(member, PostRoom("p1")))
	require.Equal(t, 0, hub.MemberCount(PostRoom("p1")))
}

func TestLeaveAllOnDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := hub.Register("s1", "alice")

	hub.Join(member, PostRoom("p1"))
	hub.Join(member, UserRoom("alice"))
	require.Len(t, hub.Rooms(member), 2)

	hub.LeaveAll(member)

	require.Empty(t, hub.Rooms(member))
	require.Equal(t, 0, hub.MemberCount(PostRoom("p1")))
	require.Equal(t, 0, hub.Deliver(UserRoom("alice"), []byte("{}")))

	select {
	case <-member.Done():
	default:
		t.Fatal("member should be done after LeaveAll")
	}
}

func TestPerRoomOrderIsPreserved(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.BufferSize = 256
	first := hub.Register("s1", "alice")
	second := hub.Register("s2", "bob")
	hub.Join(first, PostRoom("p1"))
	hub.Join(second, PostRoom("p1"))

	for i := 0; i < 100; i++ {
		err := hub.Publish(context.Background(), PostRoom("p1"), likedEvent("p1", fmt.Sprint(i)))
		require.NoError(t, err)
	}

	firstEvents := drain(first)
	secondEvents := drain(second)
	require.Len(t, firstEvents, 100)
	require.Equal(t, firstEvents, secondEvents)
	for i, event := range firstEvents {
		require.Equal(t, []string{fmt.Sprint(i)}, event.(model.PostLikedEvent).Emoticons)
	}
}

func TestConcurrentPublishersSeeSameOrder(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.BufferSize = 512
	first := hub.Register("s1", "alice")
	second := hub.Register("s2", "bob")
	hub.Join(first, PostRoom("p1"))
	hub.Join(second, PostRoom("p1"))

	var wg sync.WaitGroup
	for writer := 0; writer < 4; writer++ {
		wg.Add(1)
		go func(writer int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = hub.Publish(context.Background(), PostRoom("p1"), likedEvent("p1", fmt.Sprintf("%d-%d", writer, i)))
			}
		}(writer)
	}
	wg.Wait()

	firstEvents := drain(first)
	require.Len(t, firstEvents, 200)
	require.Equal(t, firstEvents, drain(second))
}

func TestSlowMemberIsEvictedWithoutBlockingOthers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.BufferSize = 1
	slow := hub.Register("s1", "alice")
	hub.Join(slow, PostRoom("p1"))

	hub.BufferSize = 8
	fast := hub.Register("s2", "bob")
	hub.Join(fast, PostRoom("p1"))

	for i := 0; i < 3; i++ {
		err := hub.Publish(context.Background(), PostRoom("p1"), likedEvent("p1"))
		require.NoError(t, err)
	}

	select {
	case <-slow.Done():
	default:
		t.Fatal("slow member should be evicted")
	}
	require.Len(t, drain(fast), 3)
}
