package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	API_KEY_HEADER   = "x-api-key"
	CHECK_TEXT_PATH  = "/check-text"
	CHECK_IMAGE_PATH = "/check-image"
	IMAGE_FIELD_NAME = "images"
)

// HTTPClassifier talks to the moderation API with fiber's client agent.
type HTTPClassifier struct {
	BaseUrl string
	ApiKey  string
	Log     *zap.Logger
}

func NewHTTPClassifier(zap *zap.Logger, config Config) *HTTPClassifier {
	return &HTTPClassifier{
		BaseUrl: strings.TrimRight(config.ApiUrl, "/"),
		ApiKey:  config.ApiKey,
		Log:     zap,
	}
}

func (classifier *HTTPClassifier) CheckText(ctx context.Context, text string) (model.TextCheckResponse, error) {
	var response model.TextCheckResponse

	agent := fiber.Post(classifier.BaseUrl + CHECK_TEXT_PATH)
	agent.Set(API_KEY_HEADER, classifier.ApiKey)
	agent.JSONEncoder(sonic.Marshal)
	agent.JSON(model.TextCheckRequest{Text: text})

	body, err := send(ctx, agent)
	if err != nil {
		return response, fmt.Errorf("check text: %w", err)
	}

	err = sonic.Unmarshal(body, &response)
	if err != nil {
		return response, fmt.Errorf("decode check text response: %w", err)
	}

	return response, nil
}

func (classifier *HTTPClassifier) CheckImages(ctx context.Context, media []model.MediaItem) ([]model.ImageCheckResult, error) {
	agent := fiber.Post(classifier.BaseUrl + CHECK_IMAGE_PATH)
	agent.Set(API_KEY_HEADER, classifier.ApiKey)

	for _, item := range media {
		agent.FileData(&fiber.FormFile{
			Fieldname: IMAGE_FIELD_NAME,
			Name:      item.Filename,
			Content:   item.Data,
		})
	}
	agent.MultipartForm(nil)

	body, err := send(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("check images: %w", err)
	}

	var results []model.ImageCheckResult
	err = sonic.Unmarshal(body, &results)
	if err != nil {
		return nil, fmt.Errorf("decode check image response: %w", err)
	}

	return results, nil
}

func send(ctx context.Context, agent *fiber.Agent) ([]byte, error) {
	code, body, err := util.SendAgent(ctx, agent)
	if err != nil {
		return nil, err
	}

	if !util.IsSuccessStatus(code) {
		return nil, fmt.Errorf("unexpected status %d", code)
	}

	return body, nil
}
