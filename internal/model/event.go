package model

import (
	"encoding/json"

	"github.com/ferdian3456/virdanthread/internal/constant"
)

// Envelope is the socket frame carrying one room event.
type Envelope struct {
	Event string          `json:"event"`
	Room  string          `json:"room"`
	Data  json.RawMessage `json:"data"`
}

// InboundMessage is a client to server socket frame (joinUser, joinPost, leavePost).
type InboundMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// RoomEvent is an immutable, fully denormalized change published to a room.
// A receiver can apply any RoomEvent without a follow-up fetch.
type RoomEvent interface {
	EventName() string
	RoomPostId() string
}

type NewCommentEvent struct {
	Comment   Comment `json:"comment"`
	ArticleId string  `json:"articleId"`
}

func (event NewCommentEvent) EventName() string  { return constant.EVENT_NEW_COMMENT }
func (event NewCommentEvent) RoomPostId() string { return event.ArticleId }

type NewReplyCommentEvent struct {
	Comment         Comment `json:"comment"`
	ParentCommentId string  `json:"parentCommentId"`
}

func (event NewReplyCommentEvent) EventName() string  { return constant.EVENT_NEW_REPLY_COMMENT }
func (event NewReplyCommentEvent) RoomPostId() string { return event.Comment.PostId }

type PostLikedEvent struct {
	ArticleId string   `json:"articleId"`
	Emoticons []string `json:"emoticons"`
}

func (event PostLikedEvent) EventName() string  { return constant.EVENT_POST_LIKED }
func (event PostLikedEvent) RoomPostId() string { return event.ArticleId }

type CommentLikedEvent struct {
	ArticleId string   `json:"articleId"`
	CommentId string   `json:"commentId"`
	Emoticons []string `json:"emoticons"`
}

func (event CommentLikedEvent) EventName() string  { return constant.EVENT_COMMENT_LIKED }
func (event CommentLikedEvent) RoomPostId() string { return event.ArticleId }

// NotificationEvent goes to a personal user room, not a post room.
type NotificationEvent struct {
	Notification NotificationResponse `json:"notification"`
}

func (event NotificationEvent) EventName() string  { return constant.EVENT_NOTIFICATION }
func (event NotificationEvent) RoomPostId() string { return event.Notification.PostId }

// JoinedPostEvent acknowledges joinPost. Once it is received, every event
// published to the room reaches the socket.
type JoinedPostEvent struct {
	ArticleId string `json:"articleId"`
}

func (event JoinedPostEvent) EventName() string  { return constant.EVENT_JOINED_POST }
func (event JoinedPostEvent) RoomPostId() string { return event.ArticleId }

type JoinedUserEvent struct {
	UserId string `json:"userId"`
}

func (event JoinedUserEvent) EventName() string  { return constant.EVENT_JOINED_USER }
func (event JoinedUserEvent) RoomPostId() string { return "" }
