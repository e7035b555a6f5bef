package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/repository"
	"github.com/ferdian3456/virdanthread/tests/integration/setup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func createComment(t *testing.T, app *setup.TestApp, token string, postId uuid.UUID, fields map[string]string, files ...setup.MultipartFile) *http.Response {
	body, contentType := setup.CreateCommentForm(t, fields, files...)
	req := setup.CreateAuthRequest(http.MethodPost, fmt.Sprintf("/api/posts/%s/comments", postId), body, contentType, token)

	return app.Do(t, req)
}

func getThread(t *testing.T, app *setup.TestApp, token string, postId uuid.UUID) model.CommentThreadResponse {
	req := setup.CreateAuthRequest(http.MethodGet, fmt.Sprintf("/api/posts/%s/comments", postId), nil, "", token)
	resp := app.Do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var thread model.CommentThreadResponse
	setup.DecodeJSON(t, resp, &thread)

	return thread
}

func TestCommentAndReplyFlow(t *testing.T) {
	infra, app := startApp(t)
	ctx := context.Background()

	ownerId := setup.SeedUser(t, app.DB, "owner")
	replierId := setup.SeedUser(t, app.DB, "replier")
	postId := setup.SeedPost(t, app.DB, ownerId)

	ownerToken := setup.IssueToken(t, app, ownerId)
	replierToken := setup.IssueToken(t, app, replierId)

	t.Log("=== Empty thread is cached ===")
	thread := getThread(t, app, ownerToken, postId)
	assert.Equal(t, postId.String(), thread.PostId)
	assert.Empty(t, thread.Comments)

	comments := repository.NewCommentRepository(app.Log, app.DB, app.Redis, app.MinIO)
	_, _, cached, err := comments.GetThreadCache(ctx, postId)
	require.NoError(t, err)
	assert.True(t, cached)

	t.Log("=== Top-level comment with media ===")
	resp := createComment(t, app, replierToken, postId,
		map[string]string{"content": "first!", "clientRef": "temp-1"},
		setup.MultipartFile{Name: "photo.png", ContentType: "image/png", Data: setup.CreateTestPNG(t, 32)},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var top model.Comment
	setup.DecodeJSON(t, resp, &top)
	assert.Equal(t, "first!", top.Content)
	assert.Equal(t, "temp-1", top.ClientRef)
	assert.Equal(t, replierId.String(), top.AuthorId)
	assert.Nil(t, top.ParentId)
	require.Len(t, top.Media, 1)
	assert.Equal(t, "image/webp", top.Media[0].MimeType)

	_, _, cached, err = comments.GetThreadCache(ctx, postId)
	require.NoError(t, err)
	assert.False(t, cached, "write should invalidate the cached thread")

	t.Log("=== Reply by the post owner ===")
	resp = createComment(t, app, ownerToken, postId, map[string]string{"content": "thanks", "parentId": top.Id})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply model.Comment
	setup.DecodeJSON(t, resp, &reply)
	require.NotNil(t, reply.ParentId)
	assert.Equal(t, top.Id, *reply.ParentId)

	t.Log("=== Thread is nested ===")
	thread = getThread(t, app, ownerToken, postId)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, top.Id, thread.Comments[0].Id)
	require.Len(t, thread.Comments[0].Replies, 1)
	assert.Equal(t, reply.Id, thread.Comments[0].Replies[0].Id)

	t.Log("=== Notifications reach the other party only ===")
	require.Eventually(t, func() bool {
		var count int
		err := app.DB.QueryRow(ctx, "SELECT COUNT(*) FROM notifications").Scan(&count)
		return err == nil && count == 2
	}, 5*time.Second, 100*time.Millisecond)

	req := setup.CreateAuthRequest(http.MethodGet, "/api/notifications", nil, "", ownerToken)
	resp = app.Do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ownerNotifications struct {
		Data []model.NotificationResponse `json:"data"`
	}
	setup.DecodeJSON(t, resp, &ownerNotifications)
	require.Len(t, ownerNotifications.Data, 1)
	assert.Equal(t, replierId.String(), ownerNotifications.Data[0].SenderId)
	assert.Equal(t, top.Id, ownerNotifications.Data[0].EntityId)

	require.Eventually(t, func() bool {
		return setup.CountMailhogMessages(t, infra.MailhogURL, "replier@virdanthread.test") > 0
	}, 10*time.Second, 200*time.Millisecond, "reply notification should be emailed")
}

func TestLikeToggles(t *testing.T) {
	_, app := startApp(t)

	ownerId := setup.SeedUser(t, app.DB, "owner")
	fanId := setup.SeedUser(t, app.DB, "fan")
	postId := setup.SeedPost(t, app.DB, ownerId)
	ownerToken := setup.IssueToken(t, app, ownerId)
	fanToken := setup.IssueToken(t, app, fanId)

	resp := createComment(t, app, ownerToken, postId, map[string]string{"content": "like me"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comment model.Comment
	setup.DecodeJSON(t, resp, &comment)

	toggleComment := func() model.LikeResponse {
		req := setup.CreateAuthRequest(http.MethodPost, fmt.Sprintf("/api/posts/%s/comments/%s/likes", postId, comment.Id), nil, "", fanToken)
		resp := app.Do(t, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var response model.LikeResponse
		setup.DecodeJSON(t, resp, &response)
		return response
	}

	liked := toggleComment()
	assert.Equal(t, []string{fanId.String()}, liked.Likes)

	unliked := toggleComment()
	assert.Empty(t, unliked.Likes, "second toggle restores the original set")

	togglePost := func() model.LikeResponse {
		req := setup.CreateAuthRequest(http.MethodPost, fmt.Sprintf("/api/posts/%s/likes", postId), nil, "", fanToken)
		resp := app.Do(t, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var response model.LikeResponse
		setup.DecodeJSON(t, resp, &response)
		return response
	}

	assert.Equal(t, []string{fanId.String()}, togglePost().Likes)

	thread := getThread(t, app, ownerToken, postId)
	assert.Equal(t, []string{fanId.String()}, thread.Likes)

	assert.Empty(t, togglePost().Likes)
}

func TestConcurrentLikeTogglesCancelOut(t *testing.T) {
	_, app := startApp(t)
	ctx := context.Background()

	ownerId := setup.SeedUser(t, app.DB, "owner")
	fanId := setup.SeedUser(t, app.DB, "fan")
	postId := setup.SeedPost(t, app.DB, ownerId)
	ownerToken := setup.IssueToken(t, app, ownerId)
	fanToken := setup.IssueToken(t, app, fanId)

	resp := createComment(t, app, ownerToken, postId, map[string]string{"content": "like me twice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comment model.Comment
	setup.DecodeJSON(t, resp, &comment)

	countNotifications := func(notificationType string) int {
		var count int
		err := app.DB.QueryRow(ctx,
			"SELECT COUNT(*) FROM notifications WHERE sender_id = $1 AND type = $2",
			fanId, notificationType,
		).Scan(&count)
		if err != nil {
			return -1
		}
		return count
	}

	targets := []struct {
		name             string
		path             string
		notificationType string
	}{
		{name: "post", path: fmt.Sprintf("/api/posts/%s/likes", postId), notificationType: model.NOTIFICATION_TYPE_LIKE_POST},
		{name: "comment", path: fmt.Sprintf("/api/posts/%s/comments/%s/likes", postId, comment.Id), notificationType: model.NOTIFICATION_TYPE_LIKE_COMMENT},
	}

	for _, target := range targets {
		t.Run(target.name, func(t *testing.T) {
			// Two devices of the same user toggle at once.
			var group errgroup.Group
			lengths := make([]int, 2)
			for i := range lengths {
				group.Go(func() error {
					req := setup.CreateAuthRequest(http.MethodPost, target.path, nil, "", fanToken)
					resp, err := app.App.Test(req, 30_000)
					if err != nil {
						return err
					}
					defer resp.Body.Close()

					if resp.StatusCode != http.StatusOK {
						return fmt.Errorf("toggle returned %d", resp.StatusCode)
					}

					body, err := io.ReadAll(resp.Body)
					if err != nil {
						return err
					}

					var response model.LikeResponse
					err = sonic.Unmarshal(body, &response)
					if err != nil {
						return err
					}

					lengths[i] = len(response.Likes)
					return nil
				})
			}
			require.NoError(t, group.Wait())

			assert.ElementsMatch(t, []int{0, 1}, lengths, "one toggle likes, the other undoes it")

			require.Eventually(t, func() bool {
				return countNotifications(target.notificationType) == 1
			}, 5*time.Second, 50*time.Millisecond)
			assert.Never(t, func() bool {
				return countNotifications(target.notificationType) > 1
			}, 500*time.Millisecond, 50*time.Millisecond)
		})
	}

	thread := getThread(t, app, ownerToken, postId)
	assert.Empty(t, thread.Likes)
	require.Len(t, thread.Comments, 1)
	assert.Empty(t, thread.Comments[0].Likes)
}

func TestThreadCacheFillFromBeforeAWriteIsNeverServed(t *testing.T) {
	_, app := startApp(t)
	ctx := context.Background()

	ownerId := setup.SeedUser(t, app.DB, "owner")
	postId := setup.SeedPost(t, app.DB, ownerId)
	token := setup.IssueToken(t, app, ownerId)
	comments := repository.NewCommentRepository(app.Log, app.DB, app.Redis, app.MinIO)

	// A reader misses the cache and reads an empty thread...
	_, generation, cached, err := comments.GetThreadCache(ctx, postId)
	require.NoError(t, err)
	require.False(t, cached)
	stale := model.CommentThreadResponse{PostId: postId.String(), Likes: []string{}, Comments: []model.Comment{}}

	// ...a comment commits and invalidates...
	resp := createComment(t, app, token, postId, map[string]string{"content": "landed in between"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// ...and only then does the reader fill the cache.
	require.NoError(t, comments.SetThreadCache(ctx, stale, generation, time.Minute))

	thread := getThread(t, app, token, postId)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, "landed in between", thread.Comments[0].Content)

	again := getThread(t, app, token, postId)
	assert.Len(t, again.Comments, 1)
}

func TestCommentRejections(t *testing.T) {
	_, app := startApp(t)

	ownerId := setup.SeedUser(t, app.DB, "owner")
	postId := setup.SeedPost(t, app.DB, ownerId)
	token := setup.IssueToken(t, app, ownerId)

	countComments := func() int {
		var count int
		require.NoError(t, app.DB.QueryRow(context.Background(), "SELECT COUNT(*) FROM comments").Scan(&count))
		return count
	}

	t.Run("flagged text is 422", func(t *testing.T) {
		resp := createComment(t, app, token, postId, map[string]string{"content": "this is " + setup.FLAGGED_WORD})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body setup.ErrorResponse
		setup.DecodeJSON(t, resp, &body)
		assert.Equal(t, constant.ERR_MODERATION_BLOCKED_CODE, body.Error.Code)
		assert.Equal(t, 0, countComments())
	})

	t.Run("flagged image is 422", func(t *testing.T) {
		resp := createComment(t, app, token, postId,
			map[string]string{"content": "look"},
			setup.MultipartFile{Name: setup.FLAGGED_IMAGE_NAME + ".png", ContentType: "image/png", Data: setup.CreateTestPNG(t, 8)},
		)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, 0, countComments())
	})

	t.Run("oversized attachment is 413 without classification", func(t *testing.T) {
		before := len(app.Classifier.Texts())
		oversized := make([]byte, setup.TEST_MEDIA_MAX_SIZE+1)

		resp := createComment(t, app, token, postId,
			map[string]string{"content": "big"},
			setup.MultipartFile{Name: "big.png", ContentType: "image/png", Data: oversized},
		)
		require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

		var body setup.ErrorResponse
		setup.DecodeJSON(t, resp, &body)
		assert.Equal(t, constant.ERR_TOO_LARGE_CODE, body.Error.Code)
		assert.Equal(t, "big.png", body.Error.Param)
		assert.Equal(t, before, len(app.Classifier.Texts()))
	})

	t.Run("unsupported attachment is 400 without classification", func(t *testing.T) {
		texts := len(app.Classifier.Texts())
		images := len(app.Classifier.Images())

		resp := createComment(t, app, token, postId,
			map[string]string{"content": "see attached"},
			setup.MultipartFile{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 not an image")},
		)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body setup.ErrorResponse
		setup.DecodeJSON(t, resp, &body)
		assert.Equal(t, constant.ERR_VALIDATION_CODE, body.Error.Code)
		assert.Equal(t, "media[0]", body.Error.Param)
		assert.Equal(t, texts, len(app.Classifier.Texts()))
		assert.Equal(t, images, len(app.Classifier.Images()))
		assert.Equal(t, 0, countComments())
	})

	t.Run("unknown parent is 404", func(t *testing.T) {
		resp := createComment(t, app, token, postId, map[string]string{"content": "hi", "parentId": uuid.NewString()})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown post is 404", func(t *testing.T) {
		resp := createComment(t, app, token, uuid.New(), map[string]string{"content": "hi"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		resp := createComment(t, app, "", postId, map[string]string{"content": "hi"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("revoked session is 401", func(t *testing.T) {
		otherId := setup.SeedUser(t, app.DB, "revoked")
		otherToken := setup.IssueToken(t, app, otherId)
		require.NoError(t, app.Redis.Del(context.Background(), "access_token:"+otherId.String()).Err())

		resp := createComment(t, app, otherToken, postId, map[string]string{"content": "hi"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
