package notification

import (
	"context"
	"html"

	"firebase.google.com/go/v4/messaging"
	"github.com/ferdian3456/virdanthread/internal/broadcast"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"go.uber.org/zap"
)

type NotificationStore interface {
	InsertNotification(ctx context.Context, notification model.Notifications) error
}

// StoreSink persists the notification record.
type StoreSink struct {
	Store NotificationStore
}

func (sink StoreSink) Name() string { return "store" }

func (sink StoreSink) Deliver(ctx context.Context, notification model.Notifications, receiver model.UserContact) error {
	return sink.Store.InsertNotification(ctx, notification)
}

// RoomSink pushes the notification to the receiver's personal room.
type RoomSink struct {
	Publisher broadcast.Publisher
}

func (sink RoomSink) Name() string { return "room" }

func (sink RoomSink) Deliver(ctx context.Context, notification model.Notifications, receiver model.UserContact) error {
	return sink.Publisher.Publish(ctx, broadcast.UserRoom(notification.ReceiverId.String()), model.NotificationEvent{
		Notification: notification.Response(),
	})
}

// Messenger is satisfied by *messaging.Client.
type Messenger interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type DeviceTokenStore interface {
	DeleteDeviceToken(ctx context.Context, token string) error
}

// PushSink sends an FCM multicast to every device of the receiver and
// forgets tokens FCM reports as unregistered.
type PushSink struct {
	Messenger Messenger
	Tokens    DeviceTokenStore
	Log       *zap.Logger
}

func (sink PushSink) Name() string { return "push" }

func (sink PushSink) Deliver(ctx context.Context, notification model.Notifications, receiver model.UserContact) error {
	if len(receiver.DeviceTokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: "Virdan",
			Body:  notification.Message,
		},
		Data: map[string]string{
			"type":       notification.Type,
			"entityType": notification.EntityType,
			"entityId":   notification.EntityId.String(),
			"postId":     notification.PostId.String(),
		},
		Tokens: receiver.DeviceTokens,
	}

	response, err := sink.Messenger.SendEachForMulticast(ctx, message)
	if err != nil {
		return err
	}

	for i, result := range response.Responses {
		if result.Success || !messaging.IsUnregistered(result.Error) {
			continue
		}

		token := receiver.DeviceTokens[i]
		err = sink.Tokens.DeleteDeviceToken(ctx, token)
		if err != nil {
			sink.Log.Warn("failed to delete dead device token", zap.Error(err))
		}
	}

	sink.Log.Debug("push notification sent",
		zap.Int("success", response.SuccessCount),
		zap.Int("failure", response.FailureCount),
	)

	return nil
}

type EmailConfig struct {
	SmtpHost       string
	SmtpPort       int
	SenderName     string
	SenderEmail    string
	SenderPassword string
}

// EmailSink mails the receiver. It is only wired when SMTP is configured.
type EmailSink struct {
	Config EmailConfig
	Send   func(config EmailConfig, receiverEmail string, subject string, body string) error
}

func NewEmailSink(config EmailConfig) EmailSink {
	return EmailSink{Config: config, Send: sendEmail}
}

func sendEmail(config EmailConfig, receiverEmail string, subject string, body string) error {
	return util.SendEmail(config.SmtpHost, config.SmtpPort, config.SenderName, config.SenderEmail, config.SenderPassword, receiverEmail, subject, body)
}

func (sink EmailSink) Name() string { return "email" }

func (sink EmailSink) Deliver(ctx context.Context, notification model.Notifications, receiver model.UserContact) error {
	if receiver.Email == "" {
		return nil
	}

	body := "<p>Hi " + html.EscapeString(receiver.Username) + ",</p><p>" + html.EscapeString(notification.Message) + ".</p>"

	return sink.Send(sink.Config, receiver.Email, notification.Message, body)
}
