// Package engine applies a user's comment and like actions to the local
// thread before the server confirms them, then reconciles or rolls back.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ferdian3456/virdanthread/internal/commenttree"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the backing write API.
type Store interface {
	FetchComments(ctx context.Context, postId string) (model.CommentThreadResponse, error)
	CreateComment(ctx context.Context, request model.CreateCommentRequest) (model.Comment, error)
	ToggleCommentLike(ctx context.Context, postId string, commentId string) (model.LikeResponse, error)
	TogglePostLike(ctx context.Context, postId string) (model.LikeResponse, error)
}

type Screener interface {
	Screen(ctx context.Context, text string, media []model.MediaItem) model.ModerationResult
}

type Engine struct {
	UserId   string
	PostId   string
	Store    Store
	Screener Screener
	Log      *zap.Logger
	Observer Observer

	mu       sync.Mutex
	view     *View
	inflight map[ActionKey]struct{}
	loading  bool
	buffered []model.RoomEvent
}

func New(userId string, postId string, store Store, screener Screener, log *zap.Logger) *Engine {
	return &Engine{
		UserId:   userId,
		PostId:   postId,
		Store:    store,
		Screener: screener,
		Log:      log.With(zap.String("postId", postId)),
		view:     NewView(postId),
		inflight: make(map[ActionKey]struct{}),
	}
}

// Load replaces the local thread with a fresh fetch. Events that arrive while
// the fetch is running are replayed on top of the result.
func (engine *Engine) Load(ctx context.Context) error {
	engine.mu.Lock()
	engine.loading = true
	engine.buffered = nil
	engine.mu.Unlock()

	thread, err := engine.Store.FetchComments(ctx, engine.PostId)
	if err != nil {
		engine.mu.Lock()
		engine.loading = false
		engine.buffered = nil
		engine.mu.Unlock()
		return err
	}

	tree, orphans := commenttree.Build(engine.PostId, thread.Comments)
	if len(orphans) > 0 {
		engine.Log.Warn("dropped comments with unknown parent", zap.Int("count", len(orphans)))
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	engine.view = &View{
		PostId: engine.PostId,
		Tree:   tree,
		Likes:  model.NewLikeSet(thread.Likes...),
	}

	for _, event := range engine.buffered {
		engine.reconcileLocked(event)
	}
	engine.loading = false
	engine.buffered = nil

	return nil
}

// Apply consumes one room event. Misses for content that is no longer
// resident are returned so the caller may re-fetch, but are never fatal.
func (engine *Engine) Apply(event model.RoomEvent) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.loading {
		engine.buffered = append(engine.buffered, event)
	}

	return engine.reconcileLocked(event)
}

func (engine *Engine) reconcileLocked(event model.RoomEvent) error {
	err := Reconcile(engine.view, event)
	if errors.Is(err, commenttree.ErrParentNotFound) || errors.Is(err, commenttree.ErrNodeNotFound) {
		engine.Log.Debug("discarded stale room event",
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
	}

	return err
}

func (engine *Engine) Comment(ctx context.Context, content string, media []model.MediaItem) (model.Comment, error) {
	return engine.create(ctx, ActionKey{Kind: ACTION_COMMENT, TargetId: engine.PostId}, "", content, media)
}

func (engine *Engine) Reply(ctx context.Context, parentId string, content string, media []model.MediaItem) (model.Comment, error) {
	return engine.create(ctx, ActionKey{Kind: ACTION_REPLY, TargetId: parentId}, parentId, content, media)
}

func (engine *Engine) create(ctx context.Context, key ActionKey, parentId string, content string, media []model.MediaItem) (model.Comment, error) {
	err := validateCreate(parentId, content, media)
	if err != nil {
		return model.Comment{}, err
	}

	if !engine.acquire(key) {
		return model.Comment{}, ErrActionInFlight
	}
	defer engine.release(key)

	result := engine.Screener.Screen(ctx, content, media)
	if !result.Allowed() {
		return model.Comment{}, result.Err()
	}

	tempId := constant.TEMP_ID_PREFIX + uuid.NewString()
	optimistic := model.Comment{
		Id:             tempId,
		PostId:         engine.PostId,
		AuthorId:       engine.UserId,
		Content:        content,
		Media:          localMediaRefs(media),
		Likes:          []string{},
		CreateDatetime: time.Now().UTC(),
		ClientRef:      tempId,
	}

	engine.mu.Lock()
	if parentId == "" {
		engine.view.Tree.InsertTopLevel(optimistic)
	} else {
		_, err = engine.view.Tree.InsertReply(parentId, optimistic)
	}
	engine.mu.Unlock()

	if err != nil {
		return model.Comment{}, &model.ValidationError{
			Code:    constant.ERR_NOT_FOUND_ERROR,
			Message: "The comment you are replying to is no longer available",
			Param:   "parentId",
		}
	}
	engine.notify(key, StatePending)

	engine.notify(key, StateSubmitting)
	confirmed, err := engine.Store.CreateComment(ctx, model.CreateCommentRequest{
		PostId:    engine.PostId,
		AuthorId:  engine.UserId,
		Content:   content,
		ParentId:  parentId,
		ClientRef: tempId,
		Media:     media,
	})
	if err != nil {
		engine.mu.Lock()
		engine.view.Tree.Remove(tempId)
		engine.mu.Unlock()

		engine.notify(key, StateRolledBack)
		engine.Log.Info("comment submission rolled back", zap.String("tempId", tempId), zap.Error(err))

		return model.Comment{}, &model.SubmissionError{Action: string(key.Kind), TargetId: key.TargetId, Err: err}
	}

	engine.mu.Lock()
	if !engine.view.Tree.ReplaceId(tempId, confirmed) {
		// A broadcast got here first, or a reload dropped the temporary node.
		_ = insertConfirmed(engine.view.Tree, parentId, confirmed)
	}
	engine.mu.Unlock()

	engine.notify(key, StateReconciled)

	return confirmed, nil
}

// ToggleCommentLike flips the current user's membership in the comment's like
// set, computed from the set as it is right now.
func (engine *Engine) ToggleCommentLike(ctx context.Context, commentId string) (model.LikeSet, error) {
	key := ActionKey{Kind: ACTION_LIKE_COMMENT, TargetId: commentId}
	if strings.HasPrefix(commentId, constant.TEMP_ID_PREFIX) {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "The comment is still being posted",
			Param:   "commentId",
		}
	}

	if !engine.acquire(key) {
		return nil, ErrActionInFlight
	}
	defer engine.release(key)

	engine.mu.Lock()
	original, err := engine.view.Tree.Likes(commentId)
	if err == nil {
		err = engine.view.Tree.SetLikes(commentId, original.Toggled(engine.UserId))
	}
	engine.mu.Unlock()

	if err != nil {
		return nil, err
	}
	engine.notify(key, StatePending)

	engine.notify(key, StateSubmitting)
	response, err := engine.Store.ToggleCommentLike(ctx, engine.PostId, commentId)
	if err != nil {
		engine.mu.Lock()
		_ = engine.view.Tree.SetLikes(commentId, original)
		engine.mu.Unlock()

		engine.notify(key, StateRolledBack)

		return nil, &model.SubmissionError{Action: string(key.Kind), TargetId: commentId, Err: err}
	}

	confirmed := model.NewLikeSet(response.Likes...)

	engine.mu.Lock()
	_ = engine.view.Tree.SetLikes(commentId, confirmed)
	engine.mu.Unlock()

	engine.notify(key, StateReconciled)

	return confirmed, nil
}

func (engine *Engine) TogglePostLike(ctx context.Context) (model.LikeSet, error) {
	key := ActionKey{Kind: ACTION_LIKE_POST, TargetId: engine.PostId}
	if !engine.acquire(key) {
		return nil, ErrActionInFlight
	}
	defer engine.release(key)

	engine.mu.Lock()
	original := engine.view.Likes.Clone()
	engine.view.Likes = original.Toggled(engine.UserId)
	engine.mu.Unlock()
	engine.notify(key, StatePending)

	engine.notify(key, StateSubmitting)
	response, err := engine.Store.TogglePostLike(ctx, engine.PostId)
	if err != nil {
		engine.mu.Lock()
		engine.view.Likes = original
		engine.mu.Unlock()

		engine.notify(key, StateRolledBack)

		return nil, &model.SubmissionError{Action: string(key.Kind), TargetId: engine.PostId, Err: err}
	}

	confirmed := model.NewLikeSet(response.Likes...)

	engine.mu.Lock()
	engine.view.Likes = confirmed
	engine.mu.Unlock()

	engine.notify(key, StateReconciled)

	return confirmed.Clone(), nil
}

func (engine *Engine) Snapshot() []model.Comment {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return engine.view.Tree.Snapshot()
}

func (engine *Engine) PostLikes() model.LikeSet {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return engine.view.Likes.Clone()
}

func (engine *Engine) CommentLikes(commentId string) (model.LikeSet, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return engine.view.Tree.Likes(commentId)
}

func (engine *Engine) Depth(commentId string) (int, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return engine.view.Tree.Depth(commentId)
}

func (engine *Engine) acquire(key ActionKey) bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if _, busy := engine.inflight[key]; busy {
		return false
	}
	engine.inflight[key] = struct{}{}

	return true
}

func (engine *Engine) release(key ActionKey) {
	engine.mu.Lock()
	delete(engine.inflight, key)
	engine.mu.Unlock()
}

func (engine *Engine) notify(key ActionKey, state ActionState) {
	if engine.Observer != nil {
		engine.Observer(key, state)
	}
}

func validateCreate(parentId string, content string, media []model.MediaItem) error {
	if strings.HasPrefix(parentId, constant.TEMP_ID_PREFIX) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "The comment you are replying to is still being posted",
			Param:   "parentId",
		}
	}

	return model.ValidateCommentDraft(content, media)
}

func localMediaRefs(media []model.MediaItem) []model.MediaRef {
	if len(media) == 0 {
		return nil
	}

	refs := make([]model.MediaRef, 0, len(media))
	for _, item := range media {
		refs = append(refs, model.MediaRef{
			Id:       item.Filename,
			MimeType: item.ContentType,
			Size:     item.Size,
		})
	}

	return refs
}
