package engine

import (
	"context"
	"sync"

	"github.com/ferdian3456/virdanthread/internal/model"
)

// RoomJoiner hands out room memberships. The returned release func leaves the
// room and must be safe to call once.
type RoomJoiner interface {
	Acquire(ctx context.Context, postId string, handler func(model.RoomEvent)) (func(), error)
}

// Session ties an Engine to its room for the lifetime of an open post view.
type Session struct {
	Engine *Engine

	release func()
	once    sync.Once
}

// Open joins the post room and waits for the join to be acknowledged before
// loading the thread, so nothing published between the fetch and the join is
// lost.
func Open(ctx context.Context, engine *Engine, rooms RoomJoiner) (*Session, error) {
	release, err := rooms.Acquire(ctx, engine.PostId, func(event model.RoomEvent) {
		_ = engine.Apply(event)
	})
	if err != nil {
		return nil, err
	}

	err = engine.Load(ctx)
	if err != nil {
		release()
		return nil, err
	}

	return &Session{Engine: engine, release: release}, nil
}

// Close leaves the room. Safe to call more than once.
func (session *Session) Close() {
	session.once.Do(session.release)
}
