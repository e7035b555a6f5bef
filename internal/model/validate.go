package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ferdian3456/virdanthread/internal/constant"
)

var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// ValidateMediaItem accepts only images the server can normalise to WebP.
// An item without a content type is judged by its extension.
func ValidateMediaItem(item MediaItem, fieldName string) error {
	if item.ContentType != "" && !AllowedImageTypes[item.ContentType] {
		return &ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Invalid file type: %s. allowed types: jpeg, jpg, png, gif, webp", item.ContentType),
			Param:   fieldName,
		}
	}

	ext := strings.ToLower(filepath.Ext(item.Filename))
	if !allowedImageExts[ext] {
		return &ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Invalid file extension: %s", ext),
			Param:   fieldName,
		}
	}

	return nil
}

// ValidateCommentDraft holds the checks both the client and the server run
// before any content leaves for moderation.
func ValidateCommentDraft(content string, media []MediaItem) error {
	if strings.TrimSpace(content) == "" && len(media) == 0 {
		return &ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Comment must have text or media",
			Param:   "content",
		}
	}

	if len([]rune(content)) > constant.MAX_COMMENT_LENGTH {
		return &ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Comment exceeds %d characters", constant.MAX_COMMENT_LENGTH),
			Param:   "content",
		}
	}

	if len(media) > constant.MAX_MEDIA_PER_ITEM {
		return &ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("A comment can carry at most %d attachments", constant.MAX_MEDIA_PER_ITEM),
			Param:   "media",
		}
	}

	for i, item := range media {
		err := ValidateMediaItem(item, fmt.Sprintf("media[%d]", i))
		if err != nil {
			return err
		}
	}

	return nil
}
