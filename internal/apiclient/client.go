package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Client talks to the comment API on behalf of one signed-in user.
type Client struct {
	BaseUrl string
	Token   string
	Log     *zap.Logger
}

func NewClient(zap *zap.Logger, baseUrl string, token string) *Client {
	return &Client{
		BaseUrl: strings.TrimRight(baseUrl, "/"),
		Token:   token,
		Log:     zap,
	}
}

type errorBody struct {
	Error struct {
		Code       string   `json:"code"`
		Message    string   `json:"message"`
		Param      string   `json:"param"`
		Categories []string `json:"categories"`
	} `json:"error"`
}

func (client *Client) FetchComments(ctx context.Context, postId string) (model.CommentThreadResponse, error) {
	agent := fiber.Get(client.postUrl(postId, "comments"))
	client.authorize(agent)

	var thread model.CommentThreadResponse
	err := client.do(ctx, agent, &thread)
	if err != nil {
		return model.CommentThreadResponse{}, err
	}

	if thread.Likes == nil {
		thread.Likes = []string{}
	}

	return thread, nil
}

func (client *Client) CreateComment(ctx context.Context, request model.CreateCommentRequest) (model.Comment, error) {
	agent := fiber.Post(client.postUrl(request.PostId, "comments"))
	client.authorize(agent)

	for _, item := range request.Media {
		agent.FileData(&fiber.FormFile{
			Fieldname: "media",
			Name:      item.Filename,
			Content:   item.Data,
		})
	}

	args := fiber.AcquireArgs()
	args.Set("content", request.Content)
	if request.ParentId != "" {
		args.Set("parentId", request.ParentId)
	}
	if request.ClientRef != "" {
		args.Set("clientRef", request.ClientRef)
	}
	agent.MultipartForm(args)
	fiber.ReleaseArgs(args)

	var comment model.Comment
	err := client.do(ctx, agent, &comment)
	if err != nil {
		return model.Comment{}, err
	}

	return comment, nil
}

func (client *Client) ToggleCommentLike(ctx context.Context, postId string, commentId string) (model.LikeResponse, error) {
	agent := fiber.Post(client.postUrl(postId, "comments", commentId, "likes"))
	client.authorize(agent)

	var response model.LikeResponse
	err := client.do(ctx, agent, &response)
	if err != nil {
		return model.LikeResponse{}, err
	}

	return response, nil
}

func (client *Client) TogglePostLike(ctx context.Context, postId string) (model.LikeResponse, error) {
	agent := fiber.Post(client.postUrl(postId, "likes"))
	client.authorize(agent)

	var response model.LikeResponse
	err := client.do(ctx, agent, &response)
	if err != nil {
		return model.LikeResponse{}, err
	}

	return response, nil
}

func (client *Client) postUrl(postId string, segments ...string) string {
	parts := []string{client.BaseUrl, "api", "posts", url.PathEscape(postId)}
	for _, segment := range segments {
		parts = append(parts, url.PathEscape(segment))
	}

	return strings.Join(parts, "/")
}

func (client *Client) authorize(agent *fiber.Agent) {
	agent.Set(fiber.HeaderAuthorization, util.BearerPrefix+client.Token)
}

func (client *Client) do(ctx context.Context, agent *fiber.Agent, result interface{}) error {
	code, body, err := util.SendAgent(ctx, agent)
	if err != nil {
		client.Log.Warn("comment api request failed", zap.Error(err))
		return err
	}

	if !util.IsSuccessStatus(code) {
		return decodeError(code, body)
	}

	err = sonic.Unmarshal(body, result)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// decodeError maps the server's error envelope back onto the shared error
// types so callers can tell rejections apart from transport failures.
func decodeError(code int, body []byte) error {
	var envelope errorBody
	err := sonic.Unmarshal(body, &envelope)
	if err != nil || envelope.Error.Code == "" {
		return fmt.Errorf("unexpected status %d", code)
	}

	remote := envelope.Error
	switch remote.Code {
	case constant.ERR_MODERATION_BLOCKED_CODE, constant.ERR_TOO_LARGE_CODE:
		return &model.ModerationError{
			Code:       remote.Code,
			Message:    remote.Message,
			Param:      remote.Param,
			Categories: remote.Categories,
		}
	default:
		return &model.ValidationError{
			Code:    remote.Code,
			Message: remote.Message,
			Param:   remote.Param,
		}
	}
}
