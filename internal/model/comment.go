package model

import (
	"time"

	"github.com/google/uuid"
)

// Comments is a row of the comments table.
type Comments struct {
	Id             uuid.UUID
	PostId         uuid.UUID
	AuthorId       uuid.UUID
	ParentId       *uuid.UUID
	Content        string
	IsDeleted      bool
	CreateDatetime time.Time
	UpdateDatetime time.Time
}

// Comment is one node of a post's comment thread as seen by clients.
// Ids are strings so that optimistic nodes can carry a temporary id.
type Comment struct {
	Id             string     `json:"id"`
	PostId         string     `json:"postId"`
	ParentId       *string    `json:"parentId"`
	AuthorId       string     `json:"authorId"`
	Content        string     `json:"content"`
	Media          []MediaRef `json:"media"`
	Likes          []string   `json:"likes"`
	Replies        []Comment  `json:"replies"`
	IsDeleted      bool       `json:"isDeleted"`
	CreateDatetime time.Time  `json:"createDatetime"`
	ClientRef      string     `json:"clientRef,omitempty"`
}

// Node converts a stored row into a thread node without media or likes.
func (row Comments) Node() Comment {
	comment := Comment{
		Id:             row.Id.String(),
		PostId:         row.PostId.String(),
		AuthorId:       row.AuthorId.String(),
		Content:        row.Content,
		Likes:          []string{},
		IsDeleted:      row.IsDeleted,
		CreateDatetime: row.CreateDatetime,
	}

	if row.ParentId != nil {
		parentId := row.ParentId.String()
		comment.ParentId = &parentId
	}

	return comment
}

// Clone returns a deep copy, replies included.
func (comment Comment) Clone() Comment {
	clone := comment

	if comment.ParentId != nil {
		parentId := *comment.ParentId
		clone.ParentId = &parentId
	}

	if comment.Media != nil {
		clone.Media = make([]MediaRef, len(comment.Media))
		copy(clone.Media, comment.Media)
	}

	if comment.Likes != nil {
		clone.Likes = make([]string, len(comment.Likes))
		copy(clone.Likes, comment.Likes)
	}

	if comment.Replies != nil {
		clone.Replies = make([]Comment, len(comment.Replies))
		for i := range comment.Replies {
			clone.Replies[i] = comment.Replies[i].Clone()
		}
	}

	return clone
}

// CreateCommentRequest is the write submitted for a new comment or reply.
// ParentId is empty for top-level comments.
type CreateCommentRequest struct {
	PostId    string
	AuthorId  string
	Content   string
	ParentId  string
	ClientRef string
	Media     []MediaItem
}

type CommentThreadResponse struct {
	PostId   string    `json:"postId"`
	Likes    []string  `json:"likes"`
	Comments []Comment `json:"comments"`
}
