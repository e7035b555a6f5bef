package model

import "github.com/ferdian3456/virdanthread/internal/constant"

const (
	MODERATION_ALLOWED = "ALLOWED"
	MODERATION_BLOCKED = "BLOCKED"

	BLOCK_REASON_TOO_LARGE     = "TOO_LARGE"
	BLOCK_REASON_FLAGGED_TEXT  = "FLAGGED_TEXT"
	BLOCK_REASON_FLAGGED_MEDIA = "FLAGGED_MEDIA"
	BLOCK_REASON_UNAVAILABLE   = "UNAVAILABLE"
)

type TextCheckRequest struct {
	Text string `json:"text"`
}

// TextCheckResponse keeps the flag as a pointer: a missing field is not a pass.
type TextCheckResponse struct {
	ContainsBadWord *bool `json:"contains_bad_word"`
}

type ImageCheckResult struct {
	Filename    string   `json:"filename"`
	IsSensitive *bool    `json:"is_sensitive"`
	Reasons     []string `json:"reasons"`
}

type ModerationResult struct {
	Verdict    string
	Reason     string
	Filename   string
	Categories []string
}

func (result ModerationResult) Allowed() bool {
	return result.Verdict == MODERATION_ALLOWED
}

// Err converts a blocked result into the user-facing error, nil when allowed.
func (result ModerationResult) Err() error {
	if result.Allowed() {
		return nil
	}

	switch result.Reason {
	case BLOCK_REASON_TOO_LARGE:
		return &ModerationError{
			Code:    constant.ERR_TOO_LARGE_CODE,
			Message: "Attachment exceeds the maximum allowed size",
			Param:   result.Filename,
		}
	case BLOCK_REASON_FLAGGED_TEXT:
		return &ModerationError{
			Code:       constant.ERR_MODERATION_BLOCKED_CODE,
			Message:    constant.MODERATION_TEXT_BLOCK_MESSAGE,
			Param:      "content",
			Categories: result.Categories,
		}
	case BLOCK_REASON_FLAGGED_MEDIA:
		return &ModerationError{
			Code:       constant.ERR_MODERATION_BLOCKED_CODE,
			Message:    constant.MODERATION_MEDIA_BLOCK_MESSAGE,
			Param:      result.Filename,
			Categories: result.Categories,
		}
	default:
		return &ModerationError{
			Code:    constant.ERR_MODERATION_BLOCKED_CODE,
			Message: constant.MODERATION_GENERIC_BLOCK_MESSAGE,
		}
	}
}
