package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ferdian3456/virdanthread/internal/model"
)

// MAX_INDENT_DEPTH caps visual nesting. Deeper replies render at this level
// but keep their place in the tree.
const MAX_INDENT_DEPTH = 3

func renderThread(w io.Writer, postId string, likes model.LikeSet, comments []model.Comment) {
	fmt.Fprintf(w, "post %s (%d likes)\n", postId, len(likes))

	if len(comments) == 0 {
		fmt.Fprintln(w, "  no comments yet")
		return
	}

	for _, comment := range comments {
		renderComment(w, comment, 1)
	}
}

func renderComment(w io.Writer, comment model.Comment, depth int) {
	indent := strings.Repeat("  ", min(depth, MAX_INDENT_DEPTH))

	content := comment.Content
	if comment.IsDeleted {
		content = "[deleted]"
	}

	fmt.Fprintf(w, "%s- %s %s: %s", indent, comment.Id, comment.AuthorId, content)
	if len(comment.Media) > 0 {
		fmt.Fprintf(w, " [%d media]", len(comment.Media))
	}
	if len(comment.Likes) > 0 {
		fmt.Fprintf(w, " (%d likes)", len(comment.Likes))
	}
	fmt.Fprintln(w)

	for _, reply := range comment.Replies {
		renderComment(w, reply, depth+1)
	}
}

func renderNotification(w io.Writer, event model.NotificationEvent) {
	notification := event.Notification
	fmt.Fprintf(w, "notification %s: %s\n", notification.Type, notification.Message)
}
