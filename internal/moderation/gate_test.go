package moderation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClassifier struct {
	textResponse model.TextCheckResponse
	textErr      error
	imageResults []model.ImageCheckResult
	imageErr     error
	hang         bool
	textCalls    atomic.Int32
	imageCalls   atomic.Int32
}

func (classifier *fakeClassifier) CheckText(ctx context.Context, text string) (model.TextCheckResponse, error) {
	classifier.textCalls.Add(1)
	if classifier.hang {
		<-ctx.Done()
		return model.TextCheckResponse{}, ctx.Err()
	}
	return classifier.textResponse, classifier.textErr
}

func (classifier *fakeClassifier) CheckImages(ctx context.Context, media []model.MediaItem) ([]model.ImageCheckResult, error) {
	classifier.imageCalls.Add(1)
	if classifier.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return classifier.imageResults, classifier.imageErr
}

func boolPtr(value bool) *bool {
	return &value
}

func newTestGate(classifier Classifier) *Gate {
	return NewGate(classifier, zap.NewNop(), Config{
		TextTimeout:  50 * time.Millisecond,
		MediaTimeout: 50 * time.Millisecond,
		MaxMediaSize: 1024,
	})
}

func photo(name string, size int) model.MediaItem {
	return model.MediaItem{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(size),
		Data:        make([]byte, size),
	}
}

func TestScreenAllowsExplicitlyCleanText(t *testing.T) {
	classifier := &fakeClassifier{textResponse: model.TextCheckResponse{ContainsBadWord: boolPtr(false)}}

	result := newTestGate(classifier).Screen(context.Background(), "hello", nil)

	require.True(t, result.Allowed())
	require.NoError(t, result.Err())
	require.EqualValues(t, 1, classifier.textCalls.Load())
	require.EqualValues(t, 0, classifier.imageCalls.Load())
}

func TestScreenBlocksFlaggedText(t *testing.T) {
	classifier := &fakeClassifier{textResponse: model.TextCheckResponse{ContainsBadWord: boolPtr(true)}}

	result := newTestGate(classifier).Screen(context.Background(), "bad words", nil)

	require.False(t, result.Allowed())
	require.Equal(t, model.BLOCK_REASON_FLAGGED_TEXT, result.Reason)

	var moderationErr *model.ModerationError
	require.ErrorAs(t, result.Err(), &moderationErr)
	require.Equal(t, constant.ERR_MODERATION_BLOCKED_CODE, moderationErr.Code)
	require.False(t, moderationErr.TooLarge())
}

func TestScreenFailsClosed(t *testing.T) {
	cases := map[string]*fakeClassifier{
		"classifier error":   {textErr: errors.New("connection refused")},
		"missing verdict":    {textResponse: model.TextCheckResponse{}},
		"classifier timeout": {hang: true},
	}

	for name, classifier := range cases {
		t.Run(name, func(t *testing.T) {
			result := newTestGate(classifier).Screen(context.Background(), "hello", nil)

			require.False(t, result.Allowed())
			require.Equal(t, model.BLOCK_REASON_UNAVAILABLE, result.Reason)
			require.Error(t, result.Err())
		})
	}
}

func TestScreenTimeoutReturnsWithinBudget(t *testing.T) {
	classifier := &fakeClassifier{hang: true}

	start := time.Now()
	result := newTestGate(classifier).Screen(context.Background(), "hello", []model.MediaItem{photo("a.png", 10)})

	require.False(t, result.Allowed())
	require.Less(t, time.Since(start), time.Second)
}

func TestScreenRejectsOversizedMediaWithoutNetwork(t *testing.T) {
	classifier := &fakeClassifier{textResponse: model.TextCheckResponse{ContainsBadWord: boolPtr(false)}}

	result := newTestGate(classifier).Screen(context.Background(), "hello", []model.MediaItem{photo("ok.png", 10), photo("huge.png", 4096)})

	require.Equal(t, model.BLOCK_REASON_TOO_LARGE, result.Reason)
	require.Equal(t, "huge.png", result.Filename)
	require.EqualValues(t, 0, classifier.textCalls.Load())
	require.EqualValues(t, 0, classifier.imageCalls.Load())

	var moderationErr *model.ModerationError
	require.ErrorAs(t, result.Err(), &moderationErr)
	require.True(t, moderationErr.TooLarge())
}

func TestScreenReportsFlaggedFilename(t *testing.T) {
	classifier := &fakeClassifier{
		textResponse: model.TextCheckResponse{ContainsBadWord: boolPtr(false)},
		imageResults: []model.ImageCheckResult{
			{Filename: "a.png", IsSensitive: boolPtr(false)},
			{Filename: "b.png", IsSensitive: boolPtr(true), Reasons: []string{"violence"}},
		},
	}

	result := newTestGate(classifier).Screen(context.Background(), "look", []model.MediaItem{photo("a.png", 10), photo("b.png", 10)})

	require.Equal(t, model.BLOCK_REASON_FLAGGED_MEDIA, result.Reason)
	require.Equal(t, "b.png", result.Filename)
	require.Equal(t, []string{"violence"}, result.Categories)
}

func TestScreenMediaWithoutVerdictIsBlocked(t *testing.T) {
	classifier := &fakeClassifier{
		imageResults: []model.ImageCheckResult{{Filename: "a.png"}},
	}

	result := newTestGate(classifier).Screen(context.Background(), "", []model.MediaItem{photo("a.png", 10)})

	require.Equal(t, model.BLOCK_REASON_UNAVAILABLE, result.Reason)
	require.EqualValues(t, 0, classifier.textCalls.Load())
}

func TestScreenMediaCountMismatchIsBlocked(t *testing.T) {
	classifier := &fakeClassifier{
		imageResults: []model.ImageCheckResult{{Filename: "a.png", IsSensitive: boolPtr(false)}},
	}

	result := newTestGate(classifier).Screen(context.Background(), "", []model.MediaItem{photo("a.png", 10), photo("b.png", 10)})

	require.False(t, result.Allowed())
}

func TestScreenNothingToScreen(t *testing.T) {
	classifier := &fakeClassifier{textErr: errors.New("should not be called")}

	result := newTestGate(classifier).Screen(context.Background(), "   ", nil)

	require.True(t, result.Allowed())
	require.EqualValues(t, 0, classifier.textCalls.Load())
}
