package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/reserva-bot/internal/domain/reservation"
	"github.com/example/reserva-bot/internal/internaltypes"
)

const (
	service = "webhook"

	ToolCheckAvailability = "checkAvailability"
)

// Client posts tool calls and finished reservations to the n8n workflow.
// The webhook has a single URL; the payload shape tells the workflow which
// branch to take.
type Client struct {
	rc  *resty.Client
	url string
}

func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{rc: rc, url: url}
}

type toolCallEnvelope struct {
	Message struct {
		ToolCalls []toolCall `json:"toolCalls"`
		Type      string     `json:"type"`
	} `json:"message"`
}

type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// PostAvailabilityCheck forwards one checkAvailability call. args is the
// tool-call argument JSON exactly as the assistant produced it; it travels
// as a string.
func (c *Client) PostAvailabilityCheck(ctx context.Context, callID string, args json.RawMessage) ([]byte, error) {
	tc := toolCall{ID: callID}
	tc.Function.Name = ToolCheckAvailability
	tc.Function.Arguments = string(args)

	var env toolCallEnvelope
	env.Message.ToolCalls = []toolCall{tc}
	env.Message.Type = "tool-calls"
	return c.post(ctx, "check availability", env)
}

// PostReservation submits the confirmed reservation.
func (c *Client) PostReservation(ctx context.Context, sub reservation.Submission) ([]byte, error) {
	return c.post(ctx, "submit reservation", sub)
}

func (c *Client) post(ctx context.Context, op string, body any) ([]byte, error) {
	resp, err := c.rc.R().SetContext(ctx).SetBody(body).Execute(http.MethodPost, c.url)
	if err != nil {
		return nil, internaltypes.ClassifyTransport(service, op, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, internaltypes.NewStatusError(service, op, resp.StatusCode(), string(resp.Body()))
	}
	return resp.Body(), nil
}
