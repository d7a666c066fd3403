package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/reserva-bot/internal/internaltypes"
)

const (
	service        = "assistant"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Client talks to an OpenAI-compatible Assistants v2 API. A conversation is
// a thread; every run is started against one fixed assistant.
type Client struct {
	rc    *resty.Client
	creds Credentials
}

type Credentials struct {
	APIKey      string
	AssistantID string
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retries applies to GET requests only.
	Retries int
}

func New(creds Credentials, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+creds.APIKey).
		SetHeader("OpenAI-Beta", "assistants=v2").
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryIdempotent)
	return &Client{rc: rc, creds: creds}
}

// retryIdempotent retries GETs on transport errors and 5xx. Message and run
// creation are never replayed.
func retryIdempotent(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || r.StatusCode() >= 500
}

func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/threads", "create thread", map[string]any{}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%s create thread: %w", service, internaltypes.ErrParse)
	}
	return out.ID, nil
}

func (c *Client) PostMessage(ctx context.Context, threadID, role, text string) error {
	body := map[string]string{"role": role, "content": text}
	return c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", "post message", body, nil)
}

func (c *Client) StartRun(ctx context.Context, threadID string) (string, error) {
	var out runResponse
	body := map[string]string{"assistant_id": c.creds.AssistantID}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", "start run", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%s start run: %w", service, internaltypes.ErrParse)
	}
	return out.ID, nil
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	var out runResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, "get run", nil, &out); err != nil {
		return Run{}, err
	}
	return out.toRun(), nil
}

func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error {
	body := map[string]any{"tool_outputs": outputs}
	return c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs", "submit tool outputs", body, nil)
}

// CancelRun asks the service to stop a run that is no longer wanted.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) error {
	return c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/cancel", "cancel run", map[string]any{}, nil)
}

// ListMessages returns the thread's messages, most recent first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var out messageList
	req := c.rc.R().SetContext(ctx).SetQueryParam("order", "desc")
	if err := c.send(req, http.MethodGet, "/threads/"+threadID+"/messages", "list messages", &out); err != nil {
		return nil, err
	}
	return out.toMessages(), nil
}

func (c *Client) do(ctx context.Context, method, path, op string, body, out any) error {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	return c.send(req, method, path, op, out)
}

func (c *Client) send(req *resty.Request, method, path, op string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return internaltypes.ClassifyTransport(service, op, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return internaltypes.NewStatusError(service, op, resp.StatusCode(), apiErrorMessage(resp.Body()))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", service, op, internaltypes.ErrParse, err)
	}
	return nil
}

// apiErrorMessage prefers the "error.message" field of an API error body.
func apiErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}
