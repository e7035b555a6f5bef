package roomclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once
	autoAck  bool

	mu     sync.Mutex
	writes []model.InboundMessage
}

// newFakeConn acknowledges every join the way the server does.
func newFakeConn() *fakeConn {
	conn := newSilentConn()
	conn.autoAck = true
	return conn
}

// newSilentConn leaves acks to the test.
func newSilentConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (conn *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-conn.incoming:
		return 1, frame, nil
	case <-conn.closed:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (conn *fakeConn) WriteMessage(messageType int, data []byte) error {
	var message model.InboundMessage
	err := sonic.Unmarshal(data, &message)
	if err != nil {
		return err
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.writes = append(conn.writes, message)

	if conn.autoAck {
		switch message.Event {
		case constant.EVENT_JOIN_POST:
			conn.incoming <- ackFrame(constant.ROOM_POST_PREFIX+message.Data, model.JoinedPostEvent{ArticleId: message.Data})
		case constant.EVENT_JOIN_USER:
			conn.incoming <- ackFrame(constant.ROOM_USER_PREFIX+message.Data, model.JoinedUserEvent{UserId: message.Data})
		}
	}

	return nil
}

func ackFrame(room string, event model.RoomEvent) []byte {
	frame, err := util.EncodeEnvelope(room, event)
	if err != nil {
		panic(err)
	}
	return frame
}

func (conn *fakeConn) Close() error {
	conn.once.Do(func() { close(conn.closed) })
	return nil
}

func (conn *fakeConn) sent() []model.InboundMessage {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	return append([]model.InboundMessage(nil), conn.writes...)
}

func (conn *fakeConn) push(t *testing.T, room string, event model.RoomEvent) {
	frame, err := util.EncodeEnvelope(room, event)
	require.NoError(t, err)
	conn.incoming <- frame
}

func collect() (func(model.RoomEvent), <-chan model.RoomEvent) {
	events := make(chan model.RoomEvent, 16)
	return func(event model.RoomEvent) { events <- event }, events
}

func receive(t *testing.T, events <-chan model.RoomEvent) model.RoomEvent {
	select {
	case event := <-events:
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestAcquireJoinsOnceAndLeavesOnLastRelease(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	first, err := client.Acquire(context.Background(), "p1", func(model.RoomEvent) {})
	require.NoError(t, err)
	second, err := client.Acquire(context.Background(), "p1", func(model.RoomEvent) {})
	require.NoError(t, err)

	require.Equal(t, []model.InboundMessage{{Event: constant.EVENT_JOIN_POST, Data: "p1"}}, conn.sent())

	first()
	first()
	require.Len(t, conn.sent(), 1)
	require.Equal(t, 1, client.JoinedRooms())

	second()
	require.Equal(t, model.InboundMessage{Event: constant.EVENT_LEAVE_POST, Data: "p1"}, conn.sent()[1])
	require.Equal(t, 0, client.JoinedRooms())
}

func TestEventsRouteToTheirRoomOnly(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	p1Handler, p1Events := collect()
	p2Handler, p2Events := collect()
	_, err := client.Acquire(context.Background(), "p1", p1Handler)
	require.NoError(t, err)
	_, err = client.Acquire(context.Background(), "p2", p2Handler)
	require.NoError(t, err)

	conn.push(t, "post:p2", model.PostLikedEvent{ArticleId: "p2", Emoticons: []string{"u1"}})
	conn.push(t, "post:p1", model.PostLikedEvent{ArticleId: "p1", Emoticons: []string{"u2"}})

	event := receive(t, p1Events)
	require.Equal(t, "p1", event.RoomPostId())
	event = receive(t, p2Events)
	require.Equal(t, "p2", event.RoomPostId())

	select {
	case extra := <-p1Events:
		t.Fatalf("unexpected event %v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestUserRoomReceivesNotifications(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	handler, events := collect()
	err := client.JoinUser(context.Background(), "u1", handler)
	require.NoError(t, err)
	require.Equal(t, model.InboundMessage{Event: constant.EVENT_JOIN_USER, Data: "u1"}, conn.sent()[0])

	conn.push(t, "user:u1", model.NotificationEvent{Notification: model.NotificationResponse{Id: "n1", Type: model.NOTIFICATION_TYPE_REPLY}})

	event := receive(t, events)
	notification, ok := event.(model.NotificationEvent)
	require.True(t, ok)
	require.Equal(t, "n1", notification.Notification.Id)
}

func TestUndecodableFrameIsSkipped(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	handler, events := collect()
	_, err := client.Acquire(context.Background(), "p1", handler)
	require.NoError(t, err)

	conn.incoming <- []byte("not json")
	conn.push(t, "post:p1", model.PostLikedEvent{ArticleId: "p1"})

	require.Equal(t, "p1", receive(t, events).RoomPostId())
}

func TestCloseStopsReadLoop(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn, zap.NewNop())

	require.NoError(t, client.Close())
	require.ErrorIs(t, client.Err(), ErrClosed)

	_, err := client.Acquire(context.Background(), "p1", func(model.RoomEvent) {})
	require.ErrorIs(t, err, ErrClosed)
}

func TestAcquireWaitsForJoinAck(t *testing.T) {
	conn := newSilentConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	handler, events := collect()
	acquired := make(chan error, 1)
	go func() {
		_, err := client.Acquire(context.Background(), "p1", handler)
		acquired <- err
	}()

	require.Eventually(t, func() bool { return len(conn.sent()) == 1 }, time.Second, 5*time.Millisecond)

	select {
	case err := <-acquired:
		t.Fatalf("acquire returned before the join was acknowledged: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	// Events racing ahead of the ack still reach the view.
	conn.push(t, "post:p1", model.PostLikedEvent{ArticleId: "p1", Emoticons: []string{"u1"}})
	require.Equal(t, "p1", receive(t, events).RoomPostId())

	conn.push(t, "post:p1", model.JoinedPostEvent{ArticleId: "p1"})

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not return after the ack")
	}

	select {
	case extra := <-events:
		t.Fatalf("ack leaked to the view as %v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestAcquireWithoutAckTimesOutAndLeaves(t *testing.T) {
	conn := newSilentConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Acquire(ctx, "p1", func(model.RoomEvent) {})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 0, client.JoinedRooms())
	require.Equal(t, []model.InboundMessage{
		{Event: constant.EVENT_JOIN_POST, Data: "p1"},
		{Event: constant.EVENT_LEAVE_POST, Data: "p1"},
	}, conn.sent())
}

func TestStaleAckDoesNotCompleteRejoin(t *testing.T) {
	conn := newSilentConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Acquire(ctx, "p1", func(model.RoomEvent) {})
	require.Error(t, err)

	acquired := make(chan error, 1)
	go func() {
		_, err := client.Acquire(context.Background(), "p1", func(model.RoomEvent) {})
		acquired <- err
	}()
	require.Eventually(t, func() bool { return len(conn.sent()) == 3 }, time.Second, 5*time.Millisecond)

	// The first join's ack arrives before the server has seen the rejoin.
	conn.push(t, "post:p1", model.JoinedPostEvent{ArticleId: "p1"})
	select {
	case err := <-acquired:
		t.Fatalf("rejoin completed by a stale ack: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	conn.push(t, "post:p1", model.JoinedPostEvent{ArticleId: "p1"})
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("rejoin was never acknowledged")
	}
}

func TestJoinUserWaitsForAck(t *testing.T) {
	conn := newSilentConn()
	client := NewClient(conn, zap.NewNop())
	defer client.Close()

	joined := make(chan error, 1)
	go func() {
		joined <- client.JoinUser(context.Background(), "u1", func(model.RoomEvent) {})
	}()

	require.Eventually(t, func() bool { return len(conn.sent()) == 1 }, time.Second, 5*time.Millisecond)
	conn.push(t, "user:u1", model.JoinedUserEvent{UserId: "u1"})

	select {
	case err := <-joined:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("join user did not return after the ack")
	}
}
