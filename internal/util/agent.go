package util

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SendAgent performs a fiber client request bounded by ctx. The agent
// timeout aborts the underlying connection once the deadline passes.
func SendAgent(ctx context.Context, agent *fiber.Agent) (int, []byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, nil, context.DeadlineExceeded
		}
		agent.Timeout(remaining)
	}

	type outcome struct {
		code int
		body []byte
		errs []error
	}

	done := make(chan outcome, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- outcome{code: code, body: body, errs: errs}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case result := <-done:
		if len(result.errs) > 0 {
			return result.code, nil, errors.Join(result.errs...)
		}

		return result.code, result.body, nil
	}
}

func IsSuccessStatus(code int) bool {
	return code >= fiber.StatusOK && code < fiber.StatusMultipleChoices
}
