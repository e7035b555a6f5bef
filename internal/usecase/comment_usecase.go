package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ferdian3456/virdanthread/internal/broadcast"
	"github.com/ferdian3456/virdanthread/internal/commenttree"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/observability"
	"github.com/ferdian3456/virdanthread/internal/repository"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Screener interface {
	Screen(ctx context.Context, text string, media []model.MediaItem) model.ModerationResult
}

type Notifier interface {
	Fire(ctx context.Context, notification model.Notifications) bool
}

type CommentUsecase struct {
	CommentRepository *repository.CommentRepository
	Screener          Screener
	Publisher         broadcast.Publisher
	Notifier          Notifier
	DB                *pgxpool.Pool
	Log               *zap.Logger
	Config            *koanf.Koanf
}

func NewCommentUsecase(commentRepository *repository.CommentRepository, screener Screener, publisher broadcast.Publisher, notifier Notifier, db *pgxpool.Pool, zap *zap.Logger, koanf *koanf.Koanf) *CommentUsecase {
	return &CommentUsecase{
		CommentRepository: commentRepository,
		Screener:          screener,
		Publisher:         publisher,
		Notifier:          notifier,
		DB:                db,
		Log:               zap,
		Config:            koanf,
	}
}

func (usecase *CommentUsecase) GetComments(ctx context.Context, postIdParam string) (model.CommentThreadResponse, error) {
	ctx, span := observability.StartSpan(ctx, "CommentUsecase.GetComments", attribute.String("post.id", postIdParam))
	defer span.End()

	postId, err := parseId(postIdParam, "postId")
	if err != nil {
		return model.CommentThreadResponse{}, err
	}

	// The generation is read before the rows, so a write that lands in
	// between makes the fill below miss instead of caching a stale thread.
	thread, generation, ok, err := usecase.CommentRepository.GetThreadCache(ctx, postId)
	cacheable := err == nil
	if err != nil {
		observability.WithContext(ctx, usecase.Log).Warn("failed to read comment cache", zap.String("postId", postIdParam), zap.Error(err))
	} else if ok {
		return thread, nil
	}

	_, err = usecase.CommentRepository.GetPostOwner(ctx, postId)
	if err != nil {
		return model.CommentThreadResponse{}, err
	}

	comments, err := usecase.CommentRepository.GetComments(ctx, postId, usecase.minioFullUrl())
	if err != nil {
		return model.CommentThreadResponse{}, err
	}

	likes, err := usecase.CommentRepository.GetPostLikesNoTx(ctx, postId)
	if err != nil {
		return model.CommentThreadResponse{}, err
	}

	tree, orphans := commenttree.Build(postId.String(), comments)
	if len(orphans) > 0 {
		usecase.Log.Warn("comments with missing parent dropped from thread",
			zap.String("postId", postIdParam),
			zap.Int("orphans", len(orphans)),
		)
	}

	thread = model.CommentThreadResponse{
		PostId:   postId.String(),
		Likes:    likes,
		Comments: tree.Snapshot(),
	}

	if !cacheable {
		return thread, nil
	}

	err = usecase.CommentRepository.SetThreadCache(ctx, thread, generation, usecase.cacheTTL())
	if err != nil {
		observability.WithContext(ctx, usecase.Log).Warn("failed to write comment cache", zap.String("postId", postIdParam), zap.Error(err))
	}

	return thread, nil
}

// CreateComment screens, stores and broadcasts a comment or reply. Nothing
// is uploaded or written unless moderation explicitly allowed the content.
func (usecase *CommentUsecase) CreateComment(ctx context.Context, userId uuid.UUID, request model.CreateCommentRequest) (model.Comment, error) {
	ctx, span := observability.StartSpan(ctx, "CommentUsecase.CreateComment", attribute.String("post.id", request.PostId))
	defer span.End()

	postId, err := parseId(request.PostId, "postId")
	if err != nil {
		return model.Comment{}, err
	}

	err = validateComment(request)
	if err != nil {
		return model.Comment{}, err
	}

	postOwnerId, err := usecase.CommentRepository.GetPostOwner(ctx, postId)
	if err != nil {
		return model.Comment{}, err
	}

	var parentId *uuid.UUID
	receiverId := postOwnerId
	if request.ParentId != "" {
		id, err := parseId(request.ParentId, "parentId")
		if err != nil {
			return model.Comment{}, err
		}

		parentAuthorId, err := usecase.CommentRepository.GetCommentAuthor(ctx, postId, id, "parentId")
		if err != nil {
			return model.Comment{}, err
		}

		parentId = &id
		receiverId = parentAuthorId
	}

	result := usecase.Screener.Screen(ctx, request.Content, request.Media)
	if !result.Allowed() {
		span.AddEvent("moderation blocked", trace.WithAttributes(attribute.String("reason", result.Reason)))
		observability.WithContext(ctx, usecase.Log).Info("comment blocked by moderation",
			zap.String("postId", request.PostId),
			zap.String("reason", result.Reason),
		)
		return model.Comment{}, result.Err()
	}

	now := time.Now().UTC()
	commentId := uuid.New()
	bucketName := usecase.Config.String("MINIO_BUCKET_NAME")

	row := model.Comments{
		Id:             commentId,
		PostId:         postId,
		AuthorId:       userId,
		ParentId:       parentId,
		Content:        strings.TrimSpace(request.Content),
		CreateDatetime: now,
		UpdateDatetime: now,
	}

	mediaRows := make([]model.CommentMedia, 0, len(request.Media))
	for i, item := range request.Media {
		fieldName := fmt.Sprintf("media[%d]", i)
		object, size, err := util.ProcessCommentMedia(item, fieldName)
		if err != nil {
			return model.Comment{}, err
		}

		media := model.CommentMedia{
			Id:        uuid.New(),
			CommentId: commentId,
			Position:  i,
			Bucket:    bucketName,
			MimeType:  "image/webp",
			Size:      size,
		}
		media.ObjectKey = constant.MINIO_COMMENT_MEDIA + media.Id.String() + ".webp"

		err = usecase.CommentRepository.UploadCommentObject(ctx, bucketName, media.ObjectKey, object, size, media.MimeType)
		if err != nil {
			usecase.removeObjects(mediaRows)
			return model.Comment{}, err
		}

		mediaRows = append(mediaRows, media)
	}

	commited := false

	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		usecase.removeObjects(mediaRows)
		return model.Comment{}, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
			usecase.removeObjects(mediaRows)
		}
	}()

	err = usecase.CommentRepository.CreateComment(ctx, tx, row)
	if err != nil {
		return model.Comment{}, err
	}

	for _, media := range mediaRows {
		err = usecase.CommentRepository.CreateCommentMedia(ctx, tx, media)
		if err != nil {
			return model.Comment{}, err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return model.Comment{}, err
	}

	commited = true

	comment := row.Node()
	comment.Replies = []model.Comment{}
	comment.ClientRef = request.ClientRef
	for _, media := range mediaRows {
		comment.Media = append(comment.Media, media.Ref(usecase.minioFullUrl()))
	}

	usecase.invalidate(ctx, postId)

	notification := model.Notifications{
		SenderId:   userId,
		ReceiverId: receiverId,
		EntityType: model.ENTITY_TYPE_COMMENT,
		EntityId:   commentId,
		PostId:     postId,
	}

	var event model.RoomEvent
	if parentId == nil {
		event = model.NewCommentEvent{Comment: comment, ArticleId: postId.String()}
		notification.Type = model.NOTIFICATION_TYPE_COMMENT
	} else {
		event = model.NewReplyCommentEvent{Comment: comment, ParentCommentId: parentId.String()}
		notification.Type = model.NOTIFICATION_TYPE_REPLY
	}

	usecase.publish(ctx, postId, event)
	usecase.Notifier.Fire(ctx, notification)

	return comment, nil
}

func (usecase *CommentUsecase) ToggleCommentLike(ctx context.Context, userId uuid.UUID, postIdParam string, commentIdParam string) (model.LikeResponse, error) {
	ctx, span := observability.StartSpan(ctx, "CommentUsecase.ToggleCommentLike", attribute.String("comment.id", commentIdParam))
	defer span.End()

	postId, err := parseId(postIdParam, "postId")
	if err != nil {
		return model.LikeResponse{}, err
	}

	commentId, err := parseId(commentIdParam, "commentId")
	if err != nil {
		return model.LikeResponse{}, err
	}

	authorId, err := usecase.CommentRepository.GetCommentAuthor(ctx, postId, commentId, "commentId")
	if err != nil {
		return model.LikeResponse{}, err
	}

	commited := false

	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		return model.LikeResponse{}, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	liked, err := usecase.CommentRepository.ToggleCommentLike(ctx, tx, model.CommentLikes{
		CommentId:      commentId,
		UserId:         userId,
		CreateDatetime: time.Now().UTC(),
	})
	if err != nil {
		return model.LikeResponse{}, err
	}

	likes, err := usecase.CommentRepository.GetCommentLikes(ctx, tx, commentId)
	if err != nil {
		return model.LikeResponse{}, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return model.LikeResponse{}, err
	}

	commited = true

	usecase.invalidate(ctx, postId)
	usecase.publish(ctx, postId, model.CommentLikedEvent{
		ArticleId: postId.String(),
		CommentId: commentId.String(),
		Emoticons: likes,
	})

	if liked {
		usecase.Notifier.Fire(ctx, model.Notifications{
			SenderId:   userId,
			ReceiverId: authorId,
			Type:       model.NOTIFICATION_TYPE_LIKE_COMMENT,
			EntityType: model.ENTITY_TYPE_COMMENT,
			EntityId:   commentId,
			PostId:     postId,
		})
	}

	return model.LikeResponse{CommentId: commentId.String(), Likes: likes}, nil
}

func (usecase *CommentUsecase) TogglePostLike(ctx context.Context, userId uuid.UUID, postIdParam string) (model.LikeResponse, error) {
	ctx, span := observability.StartSpan(ctx, "CommentUsecase.TogglePostLike", attribute.String("post.id", postIdParam))
	defer span.End()

	postId, err := parseId(postIdParam, "postId")
	if err != nil {
		return model.LikeResponse{}, err
	}

	ownerId, err := usecase.CommentRepository.GetPostOwner(ctx, postId)
	if err != nil {
		return model.LikeResponse{}, err
	}

	commited := false

	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		return model.LikeResponse{}, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	liked, err := usecase.CommentRepository.TogglePostLike(ctx, tx, model.PostLikes{
		PostId:         postId,
		UserId:         userId,
		CreateDatetime: time.Now().UTC(),
	})
	if err != nil {
		return model.LikeResponse{}, err
	}

	likes, err := usecase.CommentRepository.GetPostLikes(ctx, tx, postId)
	if err != nil {
		return model.LikeResponse{}, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return model.LikeResponse{}, err
	}

	commited = true

	usecase.invalidate(ctx, postId)
	usecase.publish(ctx, postId, model.PostLikedEvent{
		ArticleId: postId.String(),
		Emoticons: likes,
	})

	if liked {
		usecase.Notifier.Fire(ctx, model.Notifications{
			SenderId:   userId,
			ReceiverId: ownerId,
			Type:       model.NOTIFICATION_TYPE_LIKE_POST,
			EntityType: model.ENTITY_TYPE_POST,
			EntityId:   postId,
			PostId:     postId,
		})
	}

	return model.LikeResponse{PostId: postId.String(), Likes: likes}, nil
}

// publish failures never undo a committed write; viewers re-sync on reload.
func (usecase *CommentUsecase) publish(ctx context.Context, postId uuid.UUID, event model.RoomEvent) {
	err := usecase.Publisher.Publish(ctx, broadcast.PostRoom(postId.String()), event)
	if err != nil {
		observability.WithContext(ctx, usecase.Log).Warn("failed to publish room event",
			zap.String("postId", postId.String()),
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
	}
}

func (usecase *CommentUsecase) invalidate(ctx context.Context, postId uuid.UUID) {
	err := usecase.CommentRepository.DeleteThreadCache(ctx, postId)
	if err != nil {
		observability.WithContext(ctx, usecase.Log).Warn("failed to invalidate comment cache", zap.String("postId", postId.String()), zap.Error(err))
	}
}

func (usecase *CommentUsecase) removeObjects(media []model.CommentMedia) {
	for _, item := range media {
		err := usecase.CommentRepository.DeleteCommentObject(context.Background(), item.Bucket, item.ObjectKey)
		if err != nil {
			usecase.Log.Warn("failed to remove orphaned comment media", zap.String("objectKey", item.ObjectKey), zap.Error(err))
		}
	}
}

func (usecase *CommentUsecase) minioFullUrl() string {
	return fmt.Sprintf("%s%s/%s", usecase.Config.String("MINIO_HTTP"), usecase.Config.String("MINIO_URL"), usecase.Config.String("MINIO_BUCKET_NAME"))
}

func (usecase *CommentUsecase) cacheTTL() time.Duration {
	ttl := usecase.Config.Duration("COMMENT_CACHE_TTL")
	if ttl <= 0 {
		return constant.DEFAULT_CACHE_TTL
	}

	return ttl
}

func parseId(value string, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Invalid %s", param),
			Param:   param,
		}
	}

	return id, nil
}

func validateComment(request model.CreateCommentRequest) error {
	return model.ValidateCommentDraft(request.Content, request.Media)
}
