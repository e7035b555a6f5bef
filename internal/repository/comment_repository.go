package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type CommentRepository struct {
	Log      *zap.Logger
	DB       *pgxpool.Pool
	DBCache  *redis.Client
	DBObject *minio.Client
}

func NewCommentRepository(zap *zap.Logger, db *pgxpool.Pool, dbCache *redis.Client, minio *minio.Client) *CommentRepository {
	return &CommentRepository{
		Log:      zap,
		DB:       db,
		DBCache:  dbCache,
		DBObject: minio,
	}
}

// Postgresql
func (repository *CommentRepository) GetPostOwner(ctx context.Context, postId uuid.UUID) (uuid.UUID, error) {
	query := "SELECT owner_id FROM posts WHERE id = $1"

	var ownerId uuid.UUID
	err := repository.DB.QueryRow(ctx, query, postId).Scan(&ownerId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Post not found",
				Param:   "postId",
			}
		}
		return uuid.Nil, err
	}

	return ownerId, nil
}

func (repository *CommentRepository) GetCommentAuthor(ctx context.Context, postId uuid.UUID, commentId uuid.UUID, param string) (uuid.UUID, error) {
	query := "SELECT author_id FROM comments WHERE id = $1 AND post_id = $2"

	var authorId uuid.UUID
	err := repository.DB.QueryRow(ctx, query, commentId, postId).Scan(&authorId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Comment not found",
				Param:   param,
			}
		}
		return uuid.Nil, err
	}

	return authorId, nil
}

func (repository *CommentRepository) CreateComment(ctx context.Context, tx pgx.Tx, comment model.Comments) error {
	query := "INSERT INTO comments (id, post_id, parent_id, author_id, content, is_deleted, create_datetime, update_datetime) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"

	_, err := tx.Exec(ctx, query, comment.Id, comment.PostId, comment.ParentId, comment.AuthorId, comment.Content, comment.IsDeleted, comment.CreateDatetime, comment.UpdateDatetime)
	if err != nil {
		return err
	}

	return nil
}

func (repository *CommentRepository) CreateCommentMedia(ctx context.Context, tx pgx.Tx, media model.CommentMedia) error {
	query := "INSERT INTO comment_media (id, comment_id, position, bucket, object_key, mime_type, size) VALUES ($1, $2, $3, $4, $5, $6, $7)"

	_, err := tx.Exec(ctx, query, media.Id, media.CommentId, media.Position, media.Bucket, media.ObjectKey, media.MimeType, media.Size)
	if err != nil {
		return err
	}

	return nil
}

// GetComments returns every comment of the post, oldest first, as flat
// nodes. Media and likes are attached; replies are not nested yet.
func (repository *CommentRepository) GetComments(ctx context.Context, postId uuid.UUID, minioFullUrl string) ([]model.Comment, error) {
	query := `
		SELECT id, post_id, parent_id, author_id, content, is_deleted, create_datetime
		FROM comments
		WHERE post_id = $1
		ORDER BY create_datetime ASC, id ASC
	`

	rows, err := repository.DB.Query(ctx, query, postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var row model.Comments
		err := rows.Scan(&row.Id, &row.PostId, &row.ParentId, &row.AuthorId, &row.Content, &row.IsDeleted, &row.CreateDatetime)
		if err != nil {
			return nil, err
		}

		comments = append(comments, row.Node())
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	media, err := repository.getPostCommentMedia(ctx, postId, minioFullUrl)
	if err != nil {
		return nil, err
	}

	likes, err := repository.getPostCommentLikes(ctx, postId)
	if err != nil {
		return nil, err
	}

	for i := range comments {
		comments[i].Media = media[comments[i].Id]
		if commentLikes, ok := likes[comments[i].Id]; ok {
			comments[i].Likes = commentLikes
		}
	}

	return comments, nil
}

func (repository *CommentRepository) getPostCommentMedia(ctx context.Context, postId uuid.UUID, minioFullUrl string) (map[string][]model.MediaRef, error) {
	query := `
		SELECT cm.comment_id, cm.id, cm.object_key, cm.mime_type, cm.size
		FROM comment_media cm
		INNER JOIN comments c ON cm.comment_id = c.id
		WHERE c.post_id = $1
		ORDER BY cm.comment_id, cm.position
	`

	rows, err := repository.DB.Query(ctx, query, postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	media := make(map[string][]model.MediaRef)
	for rows.Next() {
		var commentId uuid.UUID
		var row model.CommentMedia
		err := rows.Scan(&commentId, &row.Id, &row.ObjectKey, &row.MimeType, &row.Size)
		if err != nil {
			return nil, err
		}

		media[commentId.String()] = append(media[commentId.String()], row.Ref(minioFullUrl))
	}

	return media, rows.Err()
}

func (repository *CommentRepository) getPostCommentLikes(ctx context.Context, postId uuid.UUID) (map[string][]string, error) {
	query := `
		SELECT cl.comment_id, cl.user_id
		FROM comment_likes cl
		INNER JOIN comments c ON cl.comment_id = c.id
		WHERE c.post_id = $1
		ORDER BY cl.create_datetime ASC
	`

	rows, err := repository.DB.Query(ctx, query, postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	likes := make(map[string][]string)
	for rows.Next() {
		var commentId uuid.UUID
		var userId uuid.UUID
		err := rows.Scan(&commentId, &userId)
		if err != nil {
			return nil, err
		}

		likes[commentId.String()] = append(likes[commentId.String()], userId.String())
	}

	return likes, rows.Err()
}

// lockLikeToggle serializes toggles of one user on one target until the
// transaction ends. Without it two concurrent toggles both miss the DELETE
// and both report a like.
func lockLikeToggle(ctx context.Context, tx pgx.Tx, target string, targetId uuid.UUID, userId uuid.UUID) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))",
		fmt.Sprintf("%s:%s:%s", target, targetId, userId),
	)

	return err
}

// ToggleCommentLike flips the user's membership in the comment's like set
// and reports whether the user now likes it.
func (repository *CommentRepository) ToggleCommentLike(ctx context.Context, tx pgx.Tx, like model.CommentLikes) (bool, error) {
	err := lockLikeToggle(ctx, tx, "comment_like", like.CommentId, like.UserId)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, "DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2", like.CommentId, like.UserId)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() > 0 {
		return false, nil
	}

	query := "INSERT INTO comment_likes (comment_id, user_id, create_datetime) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING"

	_, err = tx.Exec(ctx, query, like.CommentId, like.UserId, like.CreateDatetime)
	if err != nil {
		return false, err
	}

	return true, nil
}

func (repository *CommentRepository) GetCommentLikes(ctx context.Context, tx pgx.Tx, commentId uuid.UUID) ([]string, error) {
	query := "SELECT user_id FROM comment_likes WHERE comment_id = $1 ORDER BY create_datetime ASC"

	return collectUserIds(ctx, tx, query, commentId)
}

func (repository *CommentRepository) TogglePostLike(ctx context.Context, tx pgx.Tx, like model.PostLikes) (bool, error) {
	err := lockLikeToggle(ctx, tx, "post_like", like.PostId, like.UserId)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, "DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2", like.PostId, like.UserId)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() > 0 {
		return false, nil
	}

	query := "INSERT INTO post_likes (post_id, user_id, create_datetime) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING"

	_, err = tx.Exec(ctx, query, like.PostId, like.UserId, like.CreateDatetime)
	if err != nil {
		return false, err
	}

	return true, nil
}

func (repository *CommentRepository) GetPostLikes(ctx context.Context, tx pgx.Tx, postId uuid.UUID) ([]string, error) {
	query := "SELECT user_id FROM post_likes WHERE post_id = $1 ORDER BY create_datetime ASC"

	return collectUserIds(ctx, tx, query, postId)
}

func (repository *CommentRepository) GetPostLikesNoTx(ctx context.Context, postId uuid.UUID) ([]string, error) {
	query := "SELECT user_id FROM post_likes WHERE post_id = $1 ORDER BY create_datetime ASC"

	return collectUserIds(ctx, repository.DB, query, postId)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func collectUserIds(ctx context.Context, db querier, query string, id uuid.UUID) ([]string, error) {
	rows, err := db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	userIds := []string{}
	for rows.Next() {
		var userId uuid.UUID
		err := rows.Scan(&userId)
		if err != nil {
			return nil, err
		}

		userIds = append(userIds, userId.String())
	}

	return userIds, rows.Err()
}

// MinIO
func (repository *CommentRepository) UploadCommentObject(ctx context.Context, bucketName string, objectKey string, object *bytes.Reader, size int64, contentType string) error {
	_, err := repository.DBObject.PutObject(ctx, bucketName, objectKey, object, size,
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "public, max-age=31536000, immutable",
		})
	if err != nil {
		return err
	}

	return nil
}

func (repository *CommentRepository) DeleteCommentObject(ctx context.Context, bucketName string, objectKey string) error {
	err := repository.DBObject.RemoveObject(ctx, bucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return err
	}

	return nil
}

// Redis - Cache
//
// A cached thread is stored under the post's current generation. Writers bump
// the generation instead of deleting, so a reader that fetched rows before a
// write can only fill a key nobody reads any more.
func (repository *CommentRepository) GetThreadGeneration(ctx context.Context, postId uuid.UUID) (int64, error) {
	generation, err := repository.DBCache.Get(ctx, threadGenerationKey(postId)).Int64()
	if err == redis.Nil {
		return 0, nil
	}

	return generation, err
}

// GetThreadCache returns the thread cached for the current generation, and
// that generation so a miss can be filled against it.
func (repository *CommentRepository) GetThreadCache(ctx context.Context, postId uuid.UUID) (model.CommentThreadResponse, int64, bool, error) {
	var thread model.CommentThreadResponse

	generation, err := repository.GetThreadGeneration(ctx, postId)
	if err != nil {
		return thread, 0, false, err
	}

	value, err := repository.DBCache.Get(ctx, threadCacheKey(postId, generation)).Bytes()
	if err == redis.Nil {
		return thread, generation, false, nil
	} else if err != nil {
		return thread, generation, false, err
	}

	err = sonic.Unmarshal(value, &thread)
	if err != nil {
		return thread, generation, false, err
	}

	return thread, generation, true, nil
}

func (repository *CommentRepository) SetThreadCache(ctx context.Context, thread model.CommentThreadResponse, generation int64, ttl time.Duration) error {
	postId, err := uuid.Parse(thread.PostId)
	if err != nil {
		return err
	}

	value, err := sonic.Marshal(thread)
	if err != nil {
		return err
	}

	return repository.DBCache.Set(ctx, threadCacheKey(postId, generation), value, ttl).Err()
}

// DeleteThreadCache moves the post to a new generation. Entries of older
// generations are left to expire.
func (repository *CommentRepository) DeleteThreadCache(ctx context.Context, postId uuid.UUID) error {
	key := threadGenerationKey(postId)

	_, err := repository.DBCache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, constant.THREAD_GENERATION_TTL)
		return nil
	})

	return err
}

func threadCacheKey(postId uuid.UUID, generation int64) string {
	return fmt.Sprintf("%s%s:%d", constant.REDIS_COMMENT_CACHE, postId, generation)
}

func threadGenerationKey(postId uuid.UUID) string {
	return constant.REDIS_COMMENT_GENERATION + postId.String()
}
