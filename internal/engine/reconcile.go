package engine

import (
	"github.com/ferdian3456/virdanthread/internal/commenttree"
	"github.com/ferdian3456/virdanthread/internal/model"
)

// View is the local state of one open post: its thread and its like set.
type View struct {
	PostId string
	Tree   *commenttree.Tree
	Likes  model.LikeSet
}

func NewView(postId string) *View {
	return &View{
		PostId: postId,
		Tree:   commenttree.New(postId),
		Likes:  model.NewLikeSet(),
	}
}

// Reconcile folds one room event into view. Every branch is idempotent, so
// duplicate delivery and a racing HTTP response converge on the same state.
// Events for content not resident in the view come back as
// commenttree.ErrParentNotFound or commenttree.ErrNodeNotFound and leave the
// view untouched.
func Reconcile(view *View, event model.RoomEvent) error {
	if event.RoomPostId() != view.PostId {
		return nil
	}

	switch e := event.(type) {
	case model.NewCommentEvent:
		return insertConfirmed(view.Tree, "", e.Comment)
	case model.NewReplyCommentEvent:
		return insertConfirmed(view.Tree, e.ParentCommentId, e.Comment)
	case model.PostLikedEvent:
		view.Likes = model.NewLikeSet(e.Emoticons...)
		return nil
	case model.CommentLikedEvent:
		return view.Tree.SetLikes(e.CommentId, model.NewLikeSet(e.Emoticons...))
	default:
		return nil
	}
}

// insertConfirmed places a server-confirmed comment. When it carries the
// temporary id this client used, the optimistic node is swapped in place.
func insertConfirmed(tree *commenttree.Tree, parentId string, comment model.Comment) error {
	if comment.ClientRef != "" && tree.ReplaceId(comment.ClientRef, comment) {
		return nil
	}

	if tree.Has(comment.Id) {
		return nil
	}

	if parentId == "" {
		tree.InsertTopLevel(comment)
		return nil
	}

	_, err := tree.InsertReply(parentId, comment)
	return err
}
