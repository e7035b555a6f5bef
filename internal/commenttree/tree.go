// Package commenttree holds the in-memory thread of one post: an ordered
// forest of comments with an id index, so lookups by id never walk the tree.
package commenttree

import (
	"errors"

	"github.com/ferdian3456/virdanthread/internal/model"
)

var (
	ErrParentNotFound = errors.New("parent comment not found")
	ErrNodeNotFound   = errors.New("comment not found")
)

type node struct {
	comment  model.Comment
	likes    model.LikeSet
	parent   *node
	children []*node
}

// Tree is owned by a single view and is not safe for concurrent use.
type Tree struct {
	postId string
	roots  []*node
	index  map[string]*node
}

func New(postId string) *Tree {
	return &Tree{
		postId: postId,
		index:  make(map[string]*node),
	}
}

// Build creates a tree from either a nested thread or a flat list whose
// entries reference their parent through ParentId. Entries whose parent
// never shows up are returned as orphans.
func Build(postId string, comments []model.Comment) (*Tree, []model.Comment) {
	tree := New(postId)

	pending := make([]model.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.ParentId == nil || *comment.ParentId == "" {
			tree.InsertTopLevel(comment)
			continue
		}
		pending = append(pending, comment)
	}

	for len(pending) > 0 {
		progressed := false
		remaining := pending[:0]

		for _, comment := range pending {
			_, err := tree.InsertReply(*comment.ParentId, comment)
			if errors.Is(err, ErrParentNotFound) {
				remaining = append(remaining, comment)
				continue
			}
			progressed = true
		}

		pending = remaining
		if !progressed {
			break
		}
	}

	return tree, pending
}

func (tree *Tree) PostId() string {
	return tree.postId
}

func (tree *Tree) Len() int {
	return len(tree.index)
}

func (tree *Tree) Has(id string) bool {
	_, ok := tree.index[id]
	return ok
}

// Find returns a copy of the node with its replies.
func (tree *Tree) Find(id string) (model.Comment, bool) {
	n, ok := tree.index[id]
	if !ok {
		return model.Comment{}, false
	}

	return n.snapshot(), true
}

// Likes returns a copy of the like set of id.
func (tree *Tree) Likes(id string) (model.LikeSet, error) {
	n, ok := tree.index[id]
	if !ok {
		return nil, ErrNodeNotFound
	}

	return n.likes.Clone(), nil
}

// Depth is 0 for top-level comments.
func (tree *Tree) Depth(id string) (int, error) {
	n, ok := tree.index[id]
	if !ok {
		return 0, ErrNodeNotFound
	}

	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}

	return depth, nil
}

// InsertTopLevel appends comment as a root. It reports false and leaves the
// tree untouched when the id is already present.
func (tree *Tree) InsertTopLevel(comment model.Comment) bool {
	if tree.Has(comment.Id) {
		return false
	}

	n := tree.attach(nil, comment)
	tree.roots = append(tree.roots, n)

	return true
}

// InsertReply appends comment under parentId at any depth. A duplicate id is
// a no-op reported as false.
func (tree *Tree) InsertReply(parentId string, comment model.Comment) (bool, error) {
	parent, ok := tree.index[parentId]
	if !ok {
		return false, ErrParentNotFound
	}

	if tree.Has(comment.Id) {
		return false, nil
	}

	n := tree.attach(parent, comment)
	parent.children = append(parent.children, n)

	return true, nil
}

func (tree *Tree) SetLikes(id string, likes model.LikeSet) error {
	n, ok := tree.index[id]
	if !ok {
		return ErrNodeNotFound
	}

	n.likes = likes.Clone()

	return nil
}

// ReplaceId swaps the node holding tempId for confirmed, at the same
// position. It is a no-op returning false when tempId is gone, which happens
// when a broadcast already reconciled it. If confirmed is already resident
// under its own id the temporary node is dropped instead, so the two never
// coexist.
func (tree *Tree) ReplaceId(tempId string, confirmed model.Comment) bool {
	n, ok := tree.index[tempId]
	if !ok {
		return false
	}

	if existing, ok := tree.index[confirmed.Id]; ok && existing != n {
		for _, child := range n.children {
			child.parent = existing
			existing.children = append(existing.children, child)
		}
		n.children = nil
		tree.detach(n)
		delete(tree.index, tempId)

		return true
	}

	delete(tree.index, tempId)

	replies := confirmed.Replies
	confirmed.Replies = nil
	confirmed.ParentId = n.comment.ParentId
	if n.parent != nil {
		parentId := n.parent.comment.Id
		confirmed.ParentId = &parentId
	}

	n.comment = confirmed
	n.likes = model.NewLikeSet(confirmed.Likes...)
	tree.index[confirmed.Id] = n

	for _, reply := range replies {
		if tree.Has(reply.Id) {
			continue
		}
		n.children = append(n.children, tree.attach(n, reply))
	}

	return true
}

// Remove deletes id and its whole subtree. Used to undo an optimistic insert.
func (tree *Tree) Remove(id string) bool {
	n, ok := tree.index[id]
	if !ok {
		return false
	}

	tree.detach(n)

	stack := []*node{n}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		delete(tree.index, current.comment.Id)
		stack = append(stack, current.children...)
	}

	return true
}

// Snapshot returns the thread as nested values, detached from the tree.
func (tree *Tree) Snapshot() []model.Comment {
	comments := make([]model.Comment, 0, len(tree.roots))
	for _, root := range tree.roots {
		comments = append(comments, root.snapshot())
	}

	return comments
}

func (tree *Tree) Clone() *Tree {
	clone, _ := Build(tree.postId, tree.Snapshot())
	return clone
}

// attach indexes comment and its nested replies under parent and returns the
// node for comment. The caller links that node into its sibling list. Replies
// whose id is already resident are skipped with their subtree.
func (tree *Tree) attach(parent *node, comment model.Comment) *node {
	type pendingReply struct {
		parent  *node
		comment model.Comment
	}

	var top *node
	stack := []pendingReply{{parent: parent, comment: comment}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top != nil && tree.Has(current.comment.Id) {
			continue
		}

		replies := current.comment.Replies
		current.comment.Replies = nil
		if current.parent != nil {
			parentId := current.parent.comment.Id
			current.comment.ParentId = &parentId
		}

		n := &node{
			comment: current.comment,
			likes:   model.NewLikeSet(current.comment.Likes...),
			parent:  current.parent,
		}
		tree.index[current.comment.Id] = n

		if top == nil {
			top = n
		} else {
			current.parent.children = append(current.parent.children, n)
		}

		// Reversed so siblings pop in their original order.
		for i := len(replies) - 1; i >= 0; i-- {
			stack = append(stack, pendingReply{parent: n, comment: replies[i]})
		}
	}

	return top
}

func (tree *Tree) detach(n *node) {
	siblings := &tree.roots
	if n.parent != nil {
		siblings = &n.parent.children
	}

	for i, sibling := range *siblings {
		if sibling == n {
			*siblings = append((*siblings)[:i:i], (*siblings)[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// snapshot copies n and its subtree into nested values. Nodes are visited in
// pre-order and assembled in reverse, so every reply is complete before its
// parent takes it.
func (n *node) snapshot() model.Comment {
	order := []*node{}
	stack := []*node{n}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		order = append(order, current)
		stack = append(stack, current.children...)
	}

	built := make(map[*node]model.Comment, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		current := order[i]

		comment := current.comment.Clone()
		comment.Likes = current.likes.Slice()
		comment.Replies = make([]model.Comment, 0, len(current.children))
		for _, child := range current.children {
			comment.Replies = append(comment.Replies, built[child])
			delete(built, child)
		}

		built[current] = comment
	}

	return built[n]
}
