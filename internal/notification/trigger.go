// Package notification dispatches best-effort notifications to content
// owners after a comment, reply or like has been confirmed.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDispatchFailed = errors.New("notification dispatch failed")

const (
	DEFAULT_WORKERS    = 4
	DEFAULT_QUEUE_SIZE = 256
	DEFAULT_TIMEOUT    = 10 * time.Second
)

// Sink is one delivery channel for a notification.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, notification model.Notifications, receiver model.UserContact) error
}

type ContactLookup interface {
	GetUserContact(ctx context.Context, userId uuid.UUID) (model.UserContact, error)
}

type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Trigger queues notifications and runs them through every sink on a fixed
// worker pool. Nothing it does is reported back to the caller.
type Trigger struct {
	Contacts ContactLookup
	Sinks    []Sink
	Log      *zap.Logger
	Config   Config

	mu      sync.RWMutex
	queue   chan model.Notifications
	stopped bool
	wg      sync.WaitGroup
}

func NewTrigger(contacts ContactLookup, sinks []Sink, zap *zap.Logger, config Config) *Trigger {
	if config.Workers <= 0 {
		config.Workers = DEFAULT_WORKERS
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DEFAULT_QUEUE_SIZE
	}
	if config.Timeout <= 0 {
		config.Timeout = DEFAULT_TIMEOUT
	}

	return &Trigger{
		Contacts: contacts,
		Sinks:    sinks,
		Log:      zap,
		Config:   config,
		queue:    make(chan model.Notifications, config.QueueSize),
	}
}

func (trigger *Trigger) Start() {
	for i := 0; i < trigger.Config.Workers; i++ {
		trigger.wg.Add(1)
		go func() {
			defer trigger.wg.Done()
			for notification := range trigger.queue {
				trigger.dispatch(notification)
			}
		}()
	}
}

// Stop drains the queue and waits for in-flight dispatches.
func (trigger *Trigger) Stop() {
	trigger.mu.Lock()
	if trigger.stopped {
		trigger.mu.Unlock()
		return
	}
	trigger.stopped = true
	close(trigger.queue)
	trigger.mu.Unlock()

	trigger.wg.Wait()
}

// Fire enqueues a notification unless the actor is the owner. It never
// blocks the write path: a full queue drops the notification.
func (trigger *Trigger) Fire(ctx context.Context, notification model.Notifications) bool {
	if notification.SenderId == notification.ReceiverId {
		return false
	}

	if notification.Id == uuid.Nil {
		notification.Id = uuid.New()
	}
	if notification.CreateDatetime.IsZero() {
		notification.CreateDatetime = time.Now()
	}

	trigger.mu.RLock()
	defer trigger.mu.RUnlock()

	if trigger.stopped {
		trigger.logFailure(notification, "queue", errors.New("trigger stopped"))
		return false
	}

	select {
	case trigger.queue <- notification:
		return true
	default:
		trigger.logFailure(notification, "queue", errors.New("queue full"))
		return false
	}
}

func (trigger *Trigger) dispatch(notification model.Notifications) {
	ctx, cancel := context.WithTimeout(context.Background(), trigger.Config.Timeout)
	defer cancel()

	receiver, err := trigger.Contacts.GetUserContact(ctx, notification.ReceiverId)
	if err != nil {
		trigger.logFailure(notification, "contact", err)
		receiver = model.UserContact{UserId: notification.ReceiverId}
	}

	if notification.Message == "" {
		sender, err := trigger.Contacts.GetUserContact(ctx, notification.SenderId)
		if err != nil {
			trigger.logFailure(notification, "contact", err)
		}
		notification.Message = Compose(notification.Type, sender.Username)
	}

	for _, sink := range trigger.Sinks {
		err = sink.Deliver(ctx, notification, receiver)
		if err != nil {
			trigger.logFailure(notification, sink.Name(), err)
		}
	}
}

func (trigger *Trigger) logFailure(notification model.Notifications, stage string, err error) {
	trigger.Log.Warn("dropping notification",
		zap.String("notificationId", notification.Id.String()),
		zap.String("type", notification.Type),
		zap.String("receiverId", notification.ReceiverId.String()),
		zap.Error(fmt.Errorf("%w: %s: %v", ErrDispatchFailed, stage, err)),
	)
}

// Compose builds the human readable message for a notification type.
func Compose(notificationType string, senderUsername string) string {
	if senderUsername == "" {
		senderUsername = "Someone"
	}

	switch notificationType {
	case model.NOTIFICATION_TYPE_COMMENT:
		return senderUsername + " commented on your post"
	case model.NOTIFICATION_TYPE_REPLY:
		return senderUsername + " replied to your comment"
	case model.NOTIFICATION_TYPE_LIKE_POST:
		return senderUsername + " liked your post"
	case model.NOTIFICATION_TYPE_LIKE_COMMENT:
		return senderUsername + " liked your comment"
	default:
		return senderUsername + " interacted with your content"
	}
}
