package model

import (
	"fmt"

	"github.com/ferdian3456/virdanthread/internal/constant"
)

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ModerationError is a terminal, user-visible rejection raised before any
// write happens. Code tells a moderation block apart from an oversized file.
type ModerationError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Param      string   `json:"param,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

func (e *ModerationError) Error() string {
	return e.Message
}

func (e *ModerationError) TooLarge() bool {
	return e.Code == constant.ERR_TOO_LARGE_CODE
}

// SubmissionError wraps a failed write. The optimistic change has already
// been rolled back when the caller sees it, so the action can be retried.
type SubmissionError struct {
	Action   string
	TargetId string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s on %s: %v", e.Action, e.TargetId, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Retryable() bool {
	return true
}
