// Package moderation screens comment text and attachments before anything is
// written. Every failure path ends in a blocked result.
package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errBlocked = errors.New("content blocked")

// Classifier is the external screening service.
type Classifier interface {
	CheckText(ctx context.Context, text string) (model.TextCheckResponse, error)
	CheckImages(ctx context.Context, media []model.MediaItem) ([]model.ImageCheckResult, error)
}

type Config struct {
	ApiUrl       string
	ApiKey       string
	TextTimeout  time.Duration
	MediaTimeout time.Duration
	MaxMediaSize int64
}

type Gate struct {
	Classifier   Classifier
	Log          *zap.Logger
	TextTimeout  time.Duration
	MediaTimeout time.Duration
	MaxMediaSize int64
}

func NewGate(classifier Classifier, zap *zap.Logger, config Config) *Gate {
	gate := &Gate{
		Classifier:   classifier,
		Log:          zap,
		TextTimeout:  config.TextTimeout,
		MediaTimeout: config.MediaTimeout,
		MaxMediaSize: config.MaxMediaSize,
	}

	if gate.TextTimeout <= 0 {
		gate.TextTimeout = constant.DEFAULT_TEXT_TIMEOUT
	}
	if gate.MediaTimeout <= 0 {
		gate.MediaTimeout = constant.DEFAULT_MEDIA_TIMEOUT
	}
	if gate.MaxMediaSize <= 0 {
		gate.MaxMediaSize = constant.MAX_FILE_SIZE
	}

	return gate
}

func Allowed() model.ModerationResult {
	return model.ModerationResult{Verdict: model.MODERATION_ALLOWED}
}

func blocked(reason string) model.ModerationResult {
	return model.ModerationResult{Verdict: model.MODERATION_BLOCKED, Reason: reason}
}

// Screen runs the size check locally, then the text and media classifiers
// concurrently, each under its own timeout. Only explicit negative answers
// from every classifier that was called produce an allowed result.
func (gate *Gate) Screen(ctx context.Context, text string, media []model.MediaItem) model.ModerationResult {
	ctx, span := observability.StartSpan(ctx, "moderation.Screen", attribute.Int("media.count", len(media)))
	defer span.End()

	for _, item := range media {
		if item.Size > gate.MaxMediaSize || int64(len(item.Data)) > gate.MaxMediaSize {
			gate.Log.Info("attachment rejected before moderation",
				zap.String("filename", item.Filename),
				zap.Int64("size", item.Size),
			)

			result := blocked(model.BLOCK_REASON_TOO_LARGE)
			result.Filename = item.Filename
			return result
		}
	}

	textResult := Allowed()
	mediaResult := Allowed()

	group, groupCtx := errgroup.WithContext(ctx)

	if strings.TrimSpace(text) != "" {
		group.Go(func() error {
			textResult = gate.screenText(groupCtx, text)
			if !textResult.Allowed() {
				return errBlocked
			}
			return nil
		})
	}

	if len(media) > 0 {
		group.Go(func() error {
			mediaResult = gate.screenMedia(groupCtx, media)
			if !mediaResult.Allowed() {
				return errBlocked
			}
			return nil
		})
	}

	_ = group.Wait()

	// A classifier cancelled because the other one flagged reports
	// UNAVAILABLE; the flag is the more useful reason to surface.
	for _, result := range []model.ModerationResult{textResult, mediaResult} {
		if result.Reason == model.BLOCK_REASON_FLAGGED_TEXT || result.Reason == model.BLOCK_REASON_FLAGGED_MEDIA {
			return result
		}
	}

	if !textResult.Allowed() {
		return textResult
	}

	return mediaResult
}

func (gate *Gate) screenText(ctx context.Context, text string) model.ModerationResult {
	ctx, cancel := context.WithTimeout(ctx, gate.TextTimeout)
	defer cancel()

	response, err := await(ctx, func(ctx context.Context) (model.TextCheckResponse, error) {
		return gate.Classifier.CheckText(ctx, text)
	})
	if err != nil {
		gate.Log.Warn("text moderation unavailable, blocking", zap.Error(err))
		return blocked(model.BLOCK_REASON_UNAVAILABLE)
	}

	if response.ContainsBadWord == nil {
		gate.Log.Warn("text moderation returned no verdict, blocking")
		return blocked(model.BLOCK_REASON_UNAVAILABLE)
	}

	if *response.ContainsBadWord {
		gate.Log.Info("text flagged by moderation")
		return blocked(model.BLOCK_REASON_FLAGGED_TEXT)
	}

	return Allowed()
}

func (gate *Gate) screenMedia(ctx context.Context, media []model.MediaItem) model.ModerationResult {
	ctx, cancel := context.WithTimeout(ctx, gate.MediaTimeout)
	defer cancel()

	results, err := await(ctx, func(ctx context.Context) ([]model.ImageCheckResult, error) {
		return gate.Classifier.CheckImages(ctx, media)
	})
	if err != nil {
		gate.Log.Warn("media moderation unavailable, blocking", zap.Error(err))
		return blocked(model.BLOCK_REASON_UNAVAILABLE)
	}

	if len(results) != len(media) {
		gate.Log.Warn("media moderation result count mismatch, blocking",
			zap.Int("expected", len(media)),
			zap.Int("got", len(results)),
		)
		return blocked(model.BLOCK_REASON_UNAVAILABLE)
	}

	for i, result := range results {
		if result.IsSensitive == nil {
			return blocked(model.BLOCK_REASON_UNAVAILABLE)
		}

		if *result.IsSensitive {
			flagged := blocked(model.BLOCK_REASON_FLAGGED_MEDIA)
			flagged.Filename = result.Filename
			if flagged.Filename == "" {
				flagged.Filename = media[i].Filename
			}
			flagged.Categories = result.Reasons

			gate.Log.Info("attachment flagged by moderation",
				zap.String("filename", flagged.Filename),
				zap.Strings("reasons", result.Reasons),
			)
			return flagged
		}
	}

	return Allowed()
}

// await returns as soon as ctx is done even if call ignores it.
func await[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		value, err := call(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case result := <-done:
		if result.err == nil && ctx.Err() != nil {
			var zero T
			return zero, ctx.Err()
		}
		return result.value, result.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
