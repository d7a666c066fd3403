package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/reserva-bot/internal/assistant"
	"github.com/example/reserva-bot/internal/domain/conversation"
	"github.com/example/reserva-bot/internal/domain/reservation"
	"github.com/example/reserva-bot/internal/extract"
	"github.com/example/reserva-bot/internal/internaltypes"
	"github.com/example/reserva-bot/internal/journal"
	rlog "github.com/example/reserva-bot/internal/log"
	"github.com/example/reserva-bot/internal/poller"
	"github.com/example/reserva-bot/internal/transcript"
	"github.com/example/reserva-bot/internal/webhook"
)

const (
	msgNoAnswer         = "Lo siento, no pude generar una respuesta."
	msgFinalizing       = "Conversación completa. Finalizando reserva..."
	msgCompleted        = "¡Reserva completada con éxito!"
	msgExtractionFailed = "No se pudieron extraer los datos de la reserva. Por favor, confirma de nuevo la fecha, la hora, el número de invitados, tu nombre, tu teléfono y cualquier solicitud especial."
	msgThinking         = "El asistente está pensando..."
	msgChecking         = "Verificando disponibilidad..."
)

// Assistant is the assistant API as the orchestrator uses it.
type Assistant interface {
	CreateConversation(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID, role, text string) error
	StartRun(ctx context.Context, threadID string) (string, error)
	GetRun(ctx context.Context, threadID, runID string) (assistant.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) error
	ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error)
	CancelRun(ctx context.Context, threadID, runID string) error
}

type Webhook interface {
	PostAvailabilityCheck(ctx context.Context, callID string, args json.RawMessage) ([]byte, error)
	PostReservation(ctx context.Context, sub reservation.Submission) ([]byte, error)
}

// UI is the terminal the conversation happens on.
type UI interface {
	ReadLine(ctx context.Context) (string, error)
	Assistant(name, text string)
	Status(text string)
	Success(text string)
	Warn(text string)
	Error(text string)
}

// Orchestrator runs one reservation conversation between the user, the
// assistant and the reservation webhook.
type Orchestrator struct {
	Assistant Assistant
	Webhook   Webhook
	Journal   journal.Journal
	UI        UI

	// Turns drives the run started for each user message.
	Turns     extract.Driver
	Extractor *extract.Extractor

	AssistantName string
	Restaurant    string
	Location      *time.Location
	Cost          string
	Logger        *slog.Logger

	now func() time.Time
}

// Run greets the user and processes turns until the reservation is
// submitted, the user leaves, input ends, or a fatal error occurs. The
// session is returned in every case so it can be exported.
func (o *Orchestrator) Run(ctx context.Context) (*Session, error) {
	s, err := o.Start(ctx)
	if err != nil {
		return s, err
	}
	for !s.State.Done() {
		line, err := o.UI.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			s.State = StateUserExit
			return s, nil
		}
		if err != nil {
			return s, err
		}
		if err := o.Turn(ctx, s, line); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Start opens a conversation and tells the assistant the current date.
func (o *Orchestrator) Start(ctx context.Context) (*Session, error) {
	s := &Session{ID: uuid.NewString(), StartedAt: o.clock(), State: StateGreeting}
	logger := o.log().With("session", s.ID)

	threadID, err := o.Assistant.CreateConversation(ctx)
	if err != nil {
		return s, fmt.Errorf("start conversation: %w", err)
	}
	s.ThreadID = threadID
	logger.Info("chat: conversation started", "thread", threadID)

	if err := o.Assistant.PostMessage(ctx, threadID, assistant.RoleUser, conversation.DateContext(o.clock(), o.Location)); err != nil {
		if internaltypes.IsFatal(err) {
			return s, fmt.Errorf("post date context: %w", err)
		}
		logger.Warn("chat: date context not sent", "err", err)
	}

	greeting := conversation.Greeting(o.AssistantName, o.Restaurant)
	o.UI.Assistant(o.AssistantName, greeting)
	s.record(transcript.RoleAssistant, greeting, o.clock())
	s.State = StateCollecting
	return s, nil
}

// Turn handles one line of user input. A non-nil error is fatal to the
// session; everything else is reported to the user and the session goes on.
func (o *Orchestrator) Turn(ctx context.Context, s *Session, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if conversation.IsExitCommand(input) {
		s.State = StateUserExit
		o.UI.Status(conversation.Farewell(o.Restaurant))
		return nil
	}
	s.record(transcript.RoleUser, input, o.clock())
	o.notePhoneAndName(s, input)

	reply, err := o.exchange(ctx, s, input)
	if err != nil {
		return o.recover(ctx, s, err)
	}
	if reply == "" {
		o.UI.Assistant(o.AssistantName, msgNoAnswer)
		s.record(transcript.RoleAssistant, msgNoAnswer, o.clock())
		return nil
	}
	o.UI.Assistant(o.AssistantName, reply)
	s.record(transcript.RoleAssistant, reply, o.clock())

	if !shouldFinalize(s, conversation.IsConfirmation(reply)) {
		return nil
	}
	return o.finalize(ctx, s)
}

func (o *Orchestrator) notePhoneAndName(s *Session, input string) {
	if s.AvailabilityChecked && !s.PhoneCollected && conversation.LooksLikePhoneInput(input) {
		if phone := conversation.ExtractPhone(input); phone != "" {
			s.Draft.CustomerPhone = phone
			s.PhoneCollected = true
			s.State = StatePhoneCollection
			o.log().Debug("chat: phone collected", "session", s.ID)
		}
	}
	if name := conversation.ExtractName(input); name != "" {
		s.Draft.CustomerName = name
	}
}

func shouldFinalize(s *Session, confirmed bool) bool {
	if !s.PhoneCollected {
		return false
	}
	d := s.Draft
	return confirmed || (d.HasSchedule() && (d.CustomerName != "" || s.PhoneCollected))
}

// exchange posts the user's message, runs the assistant and returns its
// latest answer.
func (o *Orchestrator) exchange(ctx context.Context, s *Session, input string) (string, error) {
	if err := o.Assistant.PostMessage(ctx, s.ThreadID, assistant.RoleUser, input); err != nil {
		return "", err
	}
	runID, err := o.Assistant.StartRun(ctx, s.ThreadID)
	if err != nil {
		return "", err
	}
	o.UI.Status(msgThinking)
	if _, err := o.Turns.Drive(ctx, s.ThreadID, runID, o.handlers(s)); err != nil {
		return "", err
	}
	msgs, err := o.Assistant.ListMessages(ctx, s.ThreadID)
	if err != nil {
		return "", err
	}
	msg, _ := assistant.Latest(msgs, assistant.RoleAssistant)
	return strings.TrimSpace(msg.Text), nil
}

func (o *Orchestrator) handlers(s *Session) map[string]poller.ToolHandler {
	return map[string]poller.ToolHandler{
		webhook.ToolCheckAvailability: o.checkAvailability(s),
	}
}

// checkAvailability answers the assistant's checkAvailability tool call
// through the webhook and keeps the identifiers it hands out on the draft.
func (o *Orchestrator) checkAvailability(s *Session) poller.ToolHandler {
	return func(ctx context.Context, call assistant.ToolCall) (string, error) {
		logger := o.log().With("session", s.ID, "call", call.ID)
		prev := s.State
		s.State = StateAvailabilityCheckPending
		o.UI.Status(msgChecking)

		args, err := reservation.ParseArgs(call.Arguments)
		if err != nil {
			logger.Warn("chat: bad checkAvailability arguments", "args", call.Arguments, "err", err)
			s.State = prev
			return reservation.AvailabilityResult{Error: err.Error()}.JSON(), nil
		}
		s.Draft.ApplyArgs(args)
		logger.Info("chat: checking availability", "date", args.Date, "time", args.Time, "guests", args.PartySize())

		var res reservation.AvailabilityResult
		raw, err := o.Webhook.PostAvailabilityCheck(ctx, call.ID, json.RawMessage(call.Arguments))
		switch {
		case err == nil:
			res = reservation.ParseAvailability(raw)
			s.Draft.ApplyResult(res)
			s.AvailabilityChecked = true
		case internaltypes.IsTimeout(err):
			logger.Warn("chat: availability check timed out", "err", err)
			res = reservation.AvailabilityResult{Error: err.Error()}
		default:
			s.State = prev
			return "", err
		}
		logger.Debug("chat: availability result", "available", res.Available, "table", res.TableID, "slot", res.SlotID)

		if err := o.journal().RecordAvailability(ctx, s.ID, json.RawMessage(call.Arguments), res); err != nil {
			logger.Warn("chat: journal write failed", "err", err)
		}

		s.State = StateCollecting
		if s.AvailabilityChecked {
			s.State = StatePhoneCollection
		}
		return res.JSON(), nil
	}
}

// finalize extracts the reservation from the conversation and submits it.
// Exhausted extraction sends the user back to collecting data.
func (o *Orchestrator) finalize(ctx context.Context, s *Session) error {
	logger := o.log().With("session", s.ID)
	s.State = StateFinalizing
	if !s.ConfirmationPromptShown {
		o.UI.Status(msgFinalizing)
		s.ConfirmationPromptShown = true
	}

	ex := o.extractor()
	ex.Handlers = o.handlers(s)
	if ex.Logger == nil {
		ex.Logger = o.log()
	}
	extracted, err := ex.Extract(ctx, s.ThreadID)
	if errors.Is(err, internaltypes.ErrExtractionExhausted) {
		s.State = StateRetrying
		logger.Warn("chat: extraction exhausted", "err", err)
		if err := o.Assistant.PostMessage(ctx, s.ThreadID, assistant.RoleUser, conversation.ReaskPrompt); err != nil {
			if internaltypes.IsFatal(err) {
				return err
			}
			logger.Warn("chat: re-ask message not sent", "err", err)
		}
		o.UI.Warn(msgExtractionFailed)
		s.record(transcript.RoleSystem, msgExtractionFailed, o.clock())
		s.State = StateCollecting
		return nil
	}
	if err != nil {
		s.State = StatePhoneCollection
		return o.recover(ctx, s, err)
	}

	sub := reservation.NewSubmission(reservation.Merge(s.Draft, extracted), s.StartedAt, o.clock(), o.Cost)
	resp, err := o.Webhook.PostReservation(ctx, sub)
	if err != nil {
		s.State = StatePhoneCollection
		return o.recover(ctx, s, err)
	}
	if err := o.journal().RecordSubmission(ctx, s.ID, sub, resp); err != nil {
		logger.Warn("chat: journal write failed", "err", err)
	}

	s.Draft = draftFrom(s.Draft, sub.Message.Analysis.StructuredData.Extracted)
	s.State = StateSubmitted
	logger.Info("chat: reservation submitted", "duration_s", sub.Message.Analysis.DurationSeconds)
	o.UI.Success(msgCompleted)
	o.UI.Status(sub.Message.Analysis.Summary)
	s.record(transcript.RoleSystem, sub.Message.Analysis.Summary, o.clock())
	return nil
}

// recover reports a non-fatal error to the user. Fatal errors and context
// cancellation are returned unchanged.
func (o *Orchestrator) recover(ctx context.Context, s *Session, err error) error {
	if internaltypes.IsFatal(err) || ctx.Err() != nil {
		return err
	}
	logger := o.log().With("session", s.ID)

	var (
		rf *internaltypes.RunFailedError
		pt *internaltypes.PollTimeoutError
	)
	var msg string
	switch {
	case errors.As(err, &rf):
		msg = fmt.Sprintf("Error: la conversación terminó con estado %q.", rf.Status)
	case errors.As(err, &pt):
		msg = "Error: el asistente tardó demasiado en responder. Inténtalo de nuevo."
		if cerr := o.Assistant.CancelRun(ctx, s.ThreadID, pt.RunID); cerr != nil {
			logger.Warn("chat: cancel stale run failed", "run", pt.RunID, "err", cerr)
		} else if _, serr := o.Turns.Settle(ctx, s.ThreadID, pt.RunID); serr != nil {
			logger.Warn("chat: stale run did not stop", "run", pt.RunID, "err", serr)
		}
	case internaltypes.IsTimeout(err):
		msg = "Error: un servicio no respondió a tiempo. Inténtalo de nuevo."
	default:
		msg = "Error: no se pudo procesar la respuesta del asistente."
	}
	logger.Warn("chat: turn failed", "err", err)
	o.UI.Error(msg)
	s.record(transcript.RoleSystem, msg, o.clock())
	if s.State == StateAvailabilityCheckPending {
		s.State = StateCollecting
	}
	return nil
}

func draftFrom(d reservation.Draft, e reservation.Extracted) reservation.Draft {
	d.Date, d.Time = e.Date, e.Time
	if n, err := reservation.ParseGuests(e.Guests); err == nil {
		d.PartySize = n
	}
	d.CustomerName, d.CustomerPhone, d.SpecialRequests = e.Name, e.Phone, e.SpecialRequests
	return d
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return rlog.Discard()
}

func (o *Orchestrator) journal() journal.Journal {
	if o.Journal != nil {
		return o.Journal
	}
	return journal.Nop{}
}

// extractor returns a copy of the configured extractor, or one built on the
// assistant and turn driver with the default retry budget.
func (o *Orchestrator) extractor() extract.Extractor {
	if o.Extractor != nil {
		return *o.Extractor
	}
	return extract.Extractor{Client: o.Assistant, Runs: o.Turns, MaxRetries: extract.DefaultMaxRetries}
}
