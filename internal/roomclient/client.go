// Package roomclient is the viewer side of the room socket: it joins rooms
// on behalf of open post views and routes incoming events to them.
package roomclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fasthttp/websocket"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("room connection closed")

// Conn is the subset of a websocket connection the client needs.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Dialer func(ctx context.Context) (Conn, error)

// WebsocketDialer dials the server socket endpoint, authenticating with the
// access token as a query parameter.
func WebsocketDialer(url string, token string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+token)

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url+"?token="+token, header)
		if err != nil {
			return nil, err
		}

		return conn, nil
	}
}

const DEFAULT_JOIN_TIMEOUT = 10 * time.Second

type subscription struct {
	next     uint64
	handlers map[uint64]func(model.RoomEvent)
	joined   chan struct{}
}

type Client struct {
	Log *zap.Logger
	// JoinTimeout bounds the wait for a join ack when ctx has no earlier
	// deadline.
	JoinTimeout time.Duration

	conn    Conn
	writeMu sync.Mutex

	mu          sync.Mutex
	rooms       map[string]*subscription
	pending     map[string]int
	userHandler func(model.RoomEvent)
	userJoined  chan struct{}
	closed      bool

	done chan struct{}
	err  error
}

func Dial(ctx context.Context, dial Dialer, zap *zap.Logger) (*Client, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}

	return NewClient(conn, zap), nil
}

// NewClient starts the read loop on an established connection.
func NewClient(conn Conn, zap *zap.Logger) *Client {
	client := &Client{
		Log:         zap,
		JoinTimeout: DEFAULT_JOIN_TIMEOUT,
		conn:        conn,
		rooms:       make(map[string]*subscription),
		pending:     make(map[string]int),
		done:        make(chan struct{}),
	}

	go client.readLoop()

	return client
}

// Acquire joins the post room when the first view for it opens. Every view
// gets its own handler; the room is left when the last one is released.
// It returns once the server has acknowledged the join, so anything the
// caller fetches afterwards cannot predate the membership.
func (client *Client) Acquire(ctx context.Context, postId string, handler func(model.RoomEvent)) (func(), error) {
	client.mu.Lock()

	if client.closed {
		client.mu.Unlock()
		return nil, ErrClosed
	}

	sub, ok := client.rooms[postId]
	if !ok {
		err := client.send(constant.EVENT_JOIN_POST, postId)
		if err != nil {
			client.mu.Unlock()
			return nil, err
		}
		client.pending[constant.ROOM_POST_PREFIX+postId]++

		sub = &subscription{
			handlers: make(map[uint64]func(model.RoomEvent)),
			joined:   make(chan struct{}),
		}
		client.rooms[postId] = sub
	}

	id := sub.next
	sub.next++
	sub.handlers[id] = handler
	joined := sub.joined

	client.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			client.release(postId, id)
		})
	}

	err := client.awaitJoin(ctx, joined)
	if err != nil {
		release()
		return nil, err
	}

	return release, nil
}

func (client *Client) release(postId string, id uint64) {
	client.mu.Lock()
	defer client.mu.Unlock()

	sub, ok := client.rooms[postId]
	if !ok {
		return
	}

	delete(sub.handlers, id)
	if len(sub.handlers) > 0 {
		return
	}

	delete(client.rooms, postId)
	if client.closed {
		return
	}

	err := client.send(constant.EVENT_LEAVE_POST, postId)
	if err != nil {
		client.Log.Warn("failed to leave post room", zap.String("postId", postId), zap.Error(err))
	}
}

// JoinUser subscribes to the viewer's personal room for notifications and
// waits for the server to acknowledge it.
func (client *Client) JoinUser(ctx context.Context, userId string, handler func(model.RoomEvent)) error {
	client.mu.Lock()

	if client.closed {
		client.mu.Unlock()
		return ErrClosed
	}

	err := client.send(constant.EVENT_JOIN_USER, userId)
	if err != nil {
		client.mu.Unlock()
		return err
	}
	client.pending[constant.ROOM_USER_PREFIX+userId]++
	client.userHandler = handler
	if client.userJoined == nil || isClosed(client.userJoined) {
		client.userJoined = make(chan struct{})
	}
	joined := client.userJoined

	client.mu.Unlock()

	return client.awaitJoin(ctx, joined)
}

func (client *Client) awaitJoin(ctx context.Context, joined <-chan struct{}) error {
	ctx, cancel := context.WithTimeout(ctx, client.JoinTimeout)
	defer cancel()

	select {
	case <-joined:
		return nil
	case <-client.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acknowledge marks a room joined once every join sent for it has been
// answered. Frames on one socket are handled in order, so an ack for an
// earlier join cannot complete a rejoin the server has not seen yet.
func (client *Client) acknowledge(room string) {
	client.mu.Lock()
	defer client.mu.Unlock()

	switch client.pending[room] {
	case 0:
		return
	case 1:
		delete(client.pending, room)
	default:
		client.pending[room]--
		return
	}

	var joined chan struct{}
	if strings.HasPrefix(room, constant.ROOM_USER_PREFIX) {
		joined = client.userJoined
	} else if sub, ok := client.rooms[strings.TrimPrefix(room, constant.ROOM_POST_PREFIX)]; ok {
		joined = sub.joined
	}

	if joined == nil {
		return
	}

	if !isClosed(joined) {
		close(joined)
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (client *Client) JoinedRooms() int {
	client.mu.Lock()
	defer client.mu.Unlock()

	return len(client.rooms)
}

// Done is closed when the read loop stops.
func (client *Client) Done() <-chan struct{} {
	return client.done
}

// Err reports why the read loop stopped, once Done is closed.
func (client *Client) Err() error {
	<-client.done
	return client.err
}

func (client *Client) Close() error {
	client.mu.Lock()
	if client.closed {
		client.mu.Unlock()
		return nil
	}
	client.closed = true
	client.mu.Unlock()

	return client.conn.Close()
}

func (client *Client) send(event string, data string) error {
	frame, err := sonic.Marshal(model.InboundMessage{Event: event, Data: data})
	if err != nil {
		return err
	}

	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	return client.conn.WriteMessage(websocket.TextMessage, frame)
}

func (client *Client) readLoop() {
	defer close(client.done)

	for {
		_, frame, err := client.conn.ReadMessage()
		if err != nil {
			client.mu.Lock()
			closed := client.closed
			client.closed = true
			client.mu.Unlock()

			if closed {
				client.err = ErrClosed
			} else {
				client.err = err
			}
			return
		}

		envelope, event, err := util.DecodeEnvelope(frame)
		if err != nil {
			client.Log.Warn("dropping undecodable room frame", zap.Error(err))
			continue
		}

		switch event.(type) {
		case model.JoinedPostEvent, model.JoinedUserEvent:
			client.acknowledge(envelope.Room)
			continue
		}

		for _, handler := range client.handlersFor(envelope.Room) {
			handler(event)
		}
	}
}

func (client *Client) handlersFor(room string) []func(model.RoomEvent) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if strings.HasPrefix(room, constant.ROOM_USER_PREFIX) {
		if client.userHandler == nil {
			return nil
		}
		return []func(model.RoomEvent){client.userHandler}
	}

	sub, ok := client.rooms[strings.TrimPrefix(room, constant.ROOM_POST_PREFIX)]
	if !ok {
		return nil
	}

	handlers := make([]func(model.RoomEvent), 0, len(sub.handlers))
	for _, handler := range sub.handlers {
		handlers = append(handlers, handler)
	}

	return handlers
}
