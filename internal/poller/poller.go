package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/reserva-bot/internal/assistant"
	"github.com/example/reserva-bot/internal/internaltypes"
	rlog "github.com/example/reserva-bot/internal/log"
)

const (
	DefaultInterval = time.Second
	DefaultMaxWait  = 60 * time.Second
)

// RunClient is the part of the assistant API a poller needs.
type RunClient interface {
	GetRun(ctx context.Context, threadID, runID string) (assistant.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) error
}

// ToolHandler answers one tool call with the output string sent back to the run.
type ToolHandler func(ctx context.Context, call assistant.ToolCall) (string, error)

// Poller drives a run to a terminal status, answering tool calls on the way.
type Poller struct {
	Client   RunClient
	Interval time.Duration
	// MaxWait and MaxPolls bound a single Drive call. Zero MaxPolls means
	// only MaxWait applies.
	MaxWait  time.Duration
	MaxPolls int
	Logger   *slog.Logger

	now func() time.Time
}

// Drive polls runID until it completes. A run that ends in any other terminal
// status yields *internaltypes.RunFailedError; one that outlives the bounds
// yields *internaltypes.PollTimeoutError. Client errors are returned as is.
func (p *Poller) Drive(ctx context.Context, threadID, runID string, handlers map[string]ToolHandler) (assistant.Run, error) {
	logger := p.logger(threadID, runID)
	return p.poll(ctx, logger, threadID, runID, func(run assistant.Run) (bool, error) {
		switch {
		case run.Status == assistant.StatusCompleted:
			return true, nil
		case run.Status.Failed():
			return true, &internaltypes.RunFailedError{RunID: runID, Status: string(run.Status), LastError: run.LastError}
		case run.Status == assistant.StatusRequiresAction:
			return false, p.dispatch(ctx, logger, threadID, runID, run.PendingToolCalls, handlers)
		case run.Status.Pending():
		default:
			logger.Warn("poller: unknown run status", "status", run.Status)
		}
		return false, nil
	})
}

// Settle waits for a run that was asked to cancel to reach a terminal status.
// The thread accepts no new messages until then. Settle shares Drive's bounds
// and answers no tool calls.
func (p *Poller) Settle(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	return p.poll(ctx, p.logger(threadID, runID), threadID, runID, func(run assistant.Run) (bool, error) {
		return run.Status.Terminal(), nil
	})
}

func (p *Poller) logger(threadID, runID string) *slog.Logger {
	logger := p.Logger
	if logger == nil {
		logger = rlog.Discard()
	}
	return logger.With("thread", threadID, "run", runID)
}

// poll fetches the run at the configured pace until step reports done or
// returns an error.
func (p *Poller) poll(ctx context.Context, logger *slog.Logger, threadID, runID string, step func(assistant.Run) (bool, error)) (assistant.Run, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxWait := p.MaxWait
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	now := p.now
	if now == nil {
		now = time.Now
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	start := now()
	polls := 0
	for {
		waited := now().Sub(start)
		if (p.MaxPolls > 0 && polls >= p.MaxPolls) || waited >= maxWait {
			return assistant.Run{}, &internaltypes.PollTimeoutError{RunID: runID, Polls: polls, Waited: waited}
		}
		if err := limiter.Wait(ctx); err != nil {
			return assistant.Run{}, err
		}

		run, err := p.Client.GetRun(ctx, threadID, runID)
		polls++
		if err != nil {
			return assistant.Run{}, err
		}
		logger.Debug("poller: run status", "status", run.Status, "poll", polls)

		done, err := step(run)
		if done || err != nil {
			return run, err
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, logger *slog.Logger, threadID, runID string, calls []assistant.ToolCall, handlers map[string]ToolHandler) error {
	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, call := range calls {
		h, ok := handlers[call.Name]
		if !ok {
			logger.Warn("poller: no handler for tool call", "tool", call.Name, "call", call.ID)
			continue
		}
		out, err := h(ctx, call)
		if err != nil {
			return fmt.Errorf("tool %s: %w", call.Name, err)
		}
		logger.Debug("poller: tool call answered", "tool", call.Name, "call", call.ID)
		outputs = append(outputs, assistant.ToolOutput{ToolCallID: call.ID, Output: out})
	}
	if len(outputs) == 0 {
		logger.Warn("poller: run requires action but produced no tool outputs", "calls", len(calls))
		return nil
	}
	return p.Client.SubmitToolOutputs(ctx, threadID, runID, outputs)
}
