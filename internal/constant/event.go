package constant

// Socket events. Inbound events are sent by clients, outbound events are
// published by the server to a room.
const (
	EVENT_JOIN_USER  = "joinUser"
	EVENT_JOIN_POST  = "joinPost"
	EVENT_LEAVE_POST = "leavePost"

	EVENT_NEW_COMMENT       = "newComment"
	EVENT_NEW_REPLY_COMMENT = "newReplyComment"
	EVENT_POST_LIKED        = "postLiked"
	EVENT_COMMENT_LIKED     = "commentLiked"
	EVENT_NOTIFICATION      = "notification"

	// Join acks go only to the socket that joined.
	EVENT_JOINED_POST = "joinedPost"
	EVENT_JOINED_USER = "joinedUser"
)

const (
	ROOM_POST_PREFIX         = "post:"
	ROOM_USER_PREFIX         = "user:"
	REDIS_ROOM_CHANNEL       = "room:"
	REDIS_COMMENT_CACHE      = "comments:"
	REDIS_COMMENT_GENERATION = "comments_gen:"
	MINIO_COMMENT_MEDIA      = "comment/media/"
)
