// Package extract asks the assistant to summarize a conversation as a JSON
// reservation and decodes the answer, retrying a bounded number of times.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/reserva-bot/internal/assistant"
	"github.com/example/reserva-bot/internal/domain/conversation"
	"github.com/example/reserva-bot/internal/domain/reservation"
	"github.com/example/reserva-bot/internal/internaltypes"
	rlog "github.com/example/reserva-bot/internal/log"
	"github.com/example/reserva-bot/internal/poller"
)

const DefaultMaxRetries = 3

// Client is the part of the assistant API the extractor talks to directly.
type Client interface {
	PostMessage(ctx context.Context, threadID, role, text string) error
	StartRun(ctx context.Context, threadID string) (string, error)
	ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error)
	CancelRun(ctx context.Context, threadID, runID string) error
}

// Driver runs a started run to completion, or waits out a cancelled one.
type Driver interface {
	Drive(ctx context.Context, threadID, runID string, handlers map[string]poller.ToolHandler) (assistant.Run, error)
	Settle(ctx context.Context, threadID, runID string) (assistant.Run, error)
}

type Extractor struct {
	Client Client
	Runs   Driver
	// MaxRetries counts attempts after the first one.
	MaxRetries int
	Prompt     string
	// Handlers answer tool calls the assistant makes while summarizing.
	Handlers map[string]poller.ToolHandler
	Logger   *slog.Logger
}

// Extract returns the reservation the assistant reads out of the thread.
// Recoverable failures are retried; once every attempt is spent the error
// wraps internaltypes.ErrExtractionExhausted. Fatal service errors and
// context cancellation are returned immediately.
func (e *Extractor) Extract(ctx context.Context, threadID string) (reservation.Extracted, error) {
	logger := e.Logger
	if logger == nil {
		logger = rlog.Discard()
	}
	logger = logger.With("thread", threadID)

	attempts := 1 + e.MaxRetries
	if e.MaxRetries < 0 {
		attempts = 1
	}
	var last error
	for i := 1; i <= attempts; i++ {
		out, err := e.attempt(ctx, logger, threadID)
		if err == nil {
			logger.Debug("extract: reservation decoded", "attempt", i)
			return out, nil
		}
		if internaltypes.IsFatal(err) || ctx.Err() != nil {
			return reservation.Extracted{}, err
		}
		logger.Warn("extract: attempt failed", "attempt", i, "of", attempts, "err", err)
		last = err
	}
	return reservation.Extracted{}, fmt.Errorf("%w after %d attempts: %v", internaltypes.ErrExtractionExhausted, attempts, last)
}

func (e *Extractor) attempt(ctx context.Context, logger *slog.Logger, threadID string) (reservation.Extracted, error) {
	prompt := e.Prompt
	if prompt == "" {
		prompt = conversation.ExtractionPrompt
	}
	if err := e.Client.PostMessage(ctx, threadID, assistant.RoleUser, prompt); err != nil {
		return reservation.Extracted{}, err
	}
	runID, err := e.Client.StartRun(ctx, threadID)
	if err != nil {
		return reservation.Extracted{}, err
	}
	if _, err := e.Runs.Drive(ctx, threadID, runID, e.Handlers); err != nil {
		var pt *internaltypes.PollTimeoutError
		if errors.As(err, &pt) {
			e.abandon(ctx, logger, threadID, runID)
		}
		return reservation.Extracted{}, err
	}

	msgs, err := e.Client.ListMessages(ctx, threadID)
	if err != nil {
		return reservation.Extracted{}, err
	}
	msg, ok := assistant.Latest(msgs, assistant.RoleAssistant)
	if !ok || msg.Text == "" {
		return reservation.Extracted{}, errors.New("no assistant answer")
	}
	obj, ok := FindObject(msg.Text)
	if !ok {
		return reservation.Extracted{}, fmt.Errorf("no JSON object in answer: %w", internaltypes.ErrParse)
	}
	return reservation.DecodeExtracted([]byte(obj))
}

// abandon cancels a run that outlived its poll budget and waits until it
// stops. A still-active run blocks new messages on the thread.
func (e *Extractor) abandon(ctx context.Context, logger *slog.Logger, threadID, runID string) {
	if err := e.Client.CancelRun(ctx, threadID, runID); err != nil {
		logger.Warn("extract: cancel stale run failed", "run", runID, "err", err)
		return
	}
	if _, err := e.Runs.Settle(ctx, threadID, runID); err != nil {
		logger.Warn("extract: stale run did not stop", "run", runID, "err", err)
	}
}

// FindObject returns the first balanced {...} region of s. Braces inside JSON
// strings are ignored.
func FindObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if start < 0 {
			if c == '{' {
				start, depth = i, 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
