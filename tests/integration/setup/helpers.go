package setup

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/repository"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TruncateAllTables empties every table, children first.
func TruncateAllTables(t *testing.T, db *pgxpool.Pool, ctx context.Context) {
	tables := []string{
		"device_tokens",
		"notifications",
		"comment_media",
		"comment_likes",
		"comments",
		"post_likes",
		"posts",
		"users",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
}

// SeedUser inserts a user row directly. Accounts belong to the external
// auth service, so there is no signup endpoint to go through.
func SeedUser(t *testing.T, db *pgxpool.Pool, username string) uuid.UUID {
	userId := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO users (id, username, email) VALUES ($1, $2, $3)",
		userId, username, username+"@virdanthread.test",
	)
	require.NoError(t, err, "failed to seed user %s", username)

	return userId
}

func SeedPost(t *testing.T, db *pgxpool.Pool, ownerId uuid.UUID) uuid.UUID {
	return SeedPostOfKind(t, db, ownerId, "ARTICLE")
}

func SeedPostOfKind(t *testing.T, db *pgxpool.Pool, ownerId uuid.UUID, kind string) uuid.UUID {
	postId := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO posts (id, kind, owner_id) VALUES ($1, $2, $3)",
		postId, kind, ownerId,
	)
	require.NoError(t, err, "failed to seed post")

	return postId
}

// IssueToken signs an access token and registers its hash the way the auth
// service does after login.
func IssueToken(t *testing.T, app *TestApp, userId uuid.UUID) string {
	token, err := util.GenerateAccessToken(userId, TEST_JWT_SECRET)
	require.NoError(t, err)

	sessionRepository := repository.NewSessionRepository(app.Log, app.Redis)
	err = sessionRepository.SetAccessTokenInCache(context.Background(), userId, token, time.Hour)
	require.NoError(t, err)

	return token
}

// CreateTestPNG renders a small solid image the media pipeline can decode.
func CreateTestPNG(t *testing.T, size int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

type MultipartFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func CreateCommentForm(t *testing.T, fields map[string]string, files ...MultipartFile) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="%s"`, file.Name))
		header.Set("Content-Type", file.ContentType)

		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file.Data)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func CreateAuthRequest(method string, url string, body io.Reader, contentType string, token string) *http.Request {
	req := httptest.NewRequest(method, url, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", util.BearerPrefix+token)
	}

	return req
}

// Do runs req against the app with a timeout long enough for media processing.
func (app *TestApp) Do(t *testing.T, req *http.Request) *http.Response {
	resp, err := app.App.Test(req, 30_000)
	require.NoError(t, err)

	return resp
}

// DecodeJSON reads the whole body into result.
func DecodeJSON(t *testing.T, resp *http.Response, result interface{}) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(body, result), "body: %s", body)
}

type ErrorResponse struct {
	Error struct {
		Code       string   `json:"code"`
		Message    string   `json:"message"`
		Param      string   `json:"param"`
		Categories []string `json:"categories"`
	} `json:"error"`
}

// CountMailhogMessages returns how many messages MailHog holds for recipient.
func CountMailhogMessages(t *testing.T, mailhogURL string, recipient string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := fiber.Get(mailhogURL + "/api/v2/search?kind=to&query=" + url.QueryEscape(recipient))
	status, body, err := util.SendAgent(ctx, agent)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, status, "body: %s", body)

	var result struct {
		Total int `json:"total"`
		Items []struct {
			Content struct {
				Body string `json:"Body"`
			} `json:"Content"`
		} `json:"items"`
	}
	require.NoError(t, sonic.Unmarshal(body, &result))

	count := 0
	for _, item := range result.Items {
		if strings.TrimSpace(item.Content.Body) != "" {
			count++
		}
	}

	return count
}
