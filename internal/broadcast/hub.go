// Package broadcast fans confirmed writes out to the sockets currently in a
// post's room.
package broadcast

import (
	"context"
	"sync"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"go.uber.org/zap"
)

const DEFAULT_MEMBER_BUFFER = 64

// Publisher sends one event to every member of a room.
type Publisher interface {
	Publish(ctx context.Context, room string, event model.RoomEvent) error
}

func PostRoom(postId string) string {
	return constant.ROOM_POST_PREFIX + postId
}

func UserRoom(userId string) string {
	return constant.ROOM_USER_PREFIX + userId
}

// Member is one connected socket. Frames are read from Send by a single
// writer, which keeps per-room publish order.
type Member struct {
	Id     string
	UserId string

	send  chan []byte
	done  chan struct{}
	once  sync.Once
	rooms map[string]struct{}
}

func (member *Member) Send() <-chan []byte {
	return member.send
}

// Done is closed when the hub evicts the member for falling behind.
func (member *Member) Done() <-chan struct{} {
	return member.done
}

func (member *Member) evict() {
	member.once.Do(func() {
		close(member.done)
	})
}

type room struct {
	mu      sync.Mutex
	members map[*Member]struct{}
}

type Hub struct {
	Log        *zap.Logger
	BufferSize int

	mu    sync.RWMutex
	rooms map[string]*room
}

func NewHub(zap *zap.Logger) *Hub {
	return &Hub{
		Log:        zap,
		BufferSize: DEFAULT_MEMBER_BUFFER,
		rooms:      make(map[string]*room),
	}
}

func (hub *Hub) Register(id string, userId string) *Member {
	return &Member{
		Id:     id,
		UserId: userId,
		send:   make(chan []byte, hub.BufferSize),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
	}
}

// Join is idempotent; it reports whether the member was newly added.
func (hub *Hub) Join(member *Member, name string) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if _, ok := member.rooms[name]; ok {
		return false
	}

	r, ok := hub.rooms[name]
	if !ok {
		r = &room{members: make(map[*Member]struct{})}
		hub.rooms[name] = r
	}

	r.mu.Lock()
	r.members[member] = struct{}{}
	r.mu.Unlock()

	member.rooms[name] = struct{}{}

	return true
}

// Leave is idempotent; empty rooms are dropped.
func (hub *Hub) Leave(member *Member, name string) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	return hub.leaveLocked(member, name)
}

// LeaveAll removes the member from every room. Called on disconnect.
func (hub *Hub) LeaveAll(member *Member) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for name := range member.rooms {
		hub.leaveLocked(member, name)
	}
	member.evict()
}

func (hub *Hub) leaveLocked(member *Member, name string) bool {
	if _, ok := member.rooms[name]; !ok {
		return false
	}
	delete(member.rooms, name)

	r, ok := hub.rooms[name]
	if !ok {
		return true
	}

	r.mu.Lock()
	delete(r.members, member)
	empty := len(r.members) == 0
	r.mu.Unlock()

	if empty {
		delete(hub.rooms, name)
	}

	return true
}

func (hub *Hub) Rooms(member *Member) []string {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	names := make([]string, 0, len(member.rooms))
	for name := range member.rooms {
		names = append(names, name)
	}

	return names
}

func (hub *Hub) MemberCount(name string) int {
	hub.mu.RLock()
	r, ok := hub.rooms[name]
	hub.mu.RUnlock()

	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.members)
}

// Publish delivers to members connected to this process only.
func (hub *Hub) Publish(ctx context.Context, name string, event model.RoomEvent) error {
	frame, err := util.EncodeEnvelope(name, event)
	if err != nil {
		return err
	}

	hub.Deliver(name, frame)

	return nil
}

// Deliver fans an encoded frame out to the room. The room lock serializes
// concurrent deliveries so every member sees the same order; sends never
// block, and a member whose buffer is full is evicted and must re-sync.
func (hub *Hub) Deliver(name string, frame []byte) int {
	hub.mu.RLock()
	r, ok := hub.rooms[name]
	hub.mu.RUnlock()

	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for member := range r.members {
		if hub.offer(member, name, frame) {
			delivered++
		}
	}

	return delivered
}

// offer queues a frame without blocking. A member that is already gone is
// skipped, and one whose buffer is full is evicted.
func (hub *Hub) offer(member *Member, name string, frame []byte) bool {
	select {
	case <-member.done:
		return false
	default:
	}

	select {
	case member.send <- frame:
		return true
	default:
		hub.Log.Warn("evicting slow room member",
			zap.String("room", name),
			zap.String("memberId", member.Id),
		)
		member.evict()
		return false
	}
}
