package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NOTIFICATION_TYPE_COMMENT      = "COMMENT"
	NOTIFICATION_TYPE_REPLY        = "REPLY"
	NOTIFICATION_TYPE_LIKE_POST    = "LIKE_POST"
	NOTIFICATION_TYPE_LIKE_COMMENT = "LIKE_COMMENT"

	ENTITY_TYPE_POST    = "POST"
	ENTITY_TYPE_COMMENT = "COMMENT"
)

// Notifications is a row of the notifications table.
type Notifications struct {
	Id             uuid.UUID
	SenderId       uuid.UUID
	ReceiverId     uuid.UUID
	Type           string
	Message        string
	EntityType     string
	EntityId       uuid.UUID
	PostId         uuid.UUID
	IsRead         bool
	CreateDatetime time.Time
}

type NotificationResponse struct {
	Id             string    `json:"id"`
	SenderId       string    `json:"senderId"`
	ReceiverId     string    `json:"receiverId"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	EntityType     string    `json:"entityType"`
	EntityId       string    `json:"entityId"`
	PostId         string    `json:"postId"`
	CreateDatetime time.Time `json:"createDatetime"`
}

func (notification Notifications) Response() NotificationResponse {
	return NotificationResponse{
		Id:             notification.Id.String(),
		SenderId:       notification.SenderId.String(),
		ReceiverId:     notification.ReceiverId.String(),
		Type:           notification.Type,
		Message:        notification.Message,
		EntityType:     notification.EntityType,
		EntityId:       notification.EntityId.String(),
		PostId:         notification.PostId.String(),
		CreateDatetime: notification.CreateDatetime,
	}
}

// UserContact is what the notification sinks need to reach a receiver.
type UserContact struct {
	UserId       uuid.UUID
	Username     string
	Email        string
	DeviceTokens []string
}
