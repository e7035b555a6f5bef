package model

import (
	"github.com/google/uuid"
)

// CommentMedia is a row of the comment_media table.
type CommentMedia struct {
	Id        uuid.UUID
	CommentId uuid.UUID
	Position  int
	Bucket    string
	ObjectKey string
	MimeType  string
	Size      int64
}

// MediaRef is an attachment reference carried on a Comment.
type MediaRef struct {
	Id       string `json:"id"`
	Url      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// MediaItem is an attachment awaiting moderation and upload.
type MediaItem struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

func (media CommentMedia) Ref(baseUrl string) MediaRef {
	return MediaRef{
		Id:       media.Id.String(),
		Url:      baseUrl + "/" + media.ObjectKey,
		MimeType: media.MimeType,
		Size:     media.Size,
	}
}
