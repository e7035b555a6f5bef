package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type PostLikes struct {
	PostId         uuid.UUID
	UserId         uuid.UUID
	CreateDatetime time.Time
}

type CommentLikes struct {
	CommentId      uuid.UUID
	UserId         uuid.UUID
	CreateDatetime time.Time
}

type LikeResponse struct {
	PostId    string   `json:"postId,omitempty"`
	CommentId string   `json:"commentId,omitempty"`
	Likes     []string `json:"likes"`
}

// LikeSet is a set of user ids. Likes are membership, never a counter.
type LikeSet map[string]struct{}

func NewLikeSet(userIds ...string) LikeSet {
	set := make(LikeSet, len(userIds))
	for _, userId := range userIds {
		set[userId] = struct{}{}
	}

	return set
}

func (set LikeSet) Has(userId string) bool {
	_, ok := set[userId]
	return ok
}

// Toggled returns a new set with userId's membership flipped.
func (set LikeSet) Toggled(userId string) LikeSet {
	next := set.Clone()
	if next.Has(userId) {
		delete(next, userId)
	} else {
		next[userId] = struct{}{}
	}

	return next
}

func (set LikeSet) Clone() LikeSet {
	clone := make(LikeSet, len(set))
	for userId := range set {
		clone[userId] = struct{}{}
	}

	return clone
}

// Slice returns the members sorted, so equal sets serialize identically.
func (set LikeSet) Slice() []string {
	userIds := make([]string, 0, len(set))
	for userId := range set {
		userIds = append(userIds, userId)
	}
	sort.Strings(userIds)

	return userIds
}

func (set LikeSet) Equal(other LikeSet) bool {
	if len(set) != len(other) {
		return false
	}

	for userId := range set {
		if !other.Has(userId) {
			return false
		}
	}

	return true
}
