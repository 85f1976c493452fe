package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crypto-digest-bot/internal/logger"
)

// finishReasonLength is the service's signal that output was cut off.
const finishReasonLength = "length"

// Completer issues one completion call for one model candidate.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (CompletionResult, error)
}

// CompleteWithFallback drives the completer across candidates in order and
// returns the first result that neither errors nor reports truncation.
// A truncated result counts as a failed attempt. When every candidate
// fails, the returned error concatenates each failure reason in attempt
// order.
func CompleteWithFallback(ctx context.Context, c Completer, models []string, prompt string) (CompletionResult, error) {
	var failures []string
	for _, model := range models {
		res, err := c.Complete(ctx, model, prompt)
		if err == nil && res.FinishReason == finishReasonLength {
			err = &ModelError{
				Model: model,
				Kind:  KindTruncated,
				Err:   errors.New("output truncated (finish_reason=length)"),
			}
		}
		if err != nil {
			logger.Warn(ctx, "Model attempt failed", "model", model, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", model, err))
			continue
		}
		logger.Info(ctx, "Completion succeeded", "model", model, "finish_reason", res.FinishReason)
		return res, nil
	}
	return CompletionResult{}, errors.New(strings.Join(failures, "; "))
}
