package assistant

// Status is the lifecycle state of a run.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusInProgress     Status = "in_progress"
	StatusRequiresAction Status = "requires_action"
	StatusCancelling     Status = "cancelling"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusExpired        Status = "expired"
	StatusCancelled      Status = "cancelled"
	StatusIncomplete     Status = "incomplete"
)

// Pending reports whether the run is still being worked on by the service.
func (s Status) Pending() bool {
	return s == StatusQueued || s == StatusInProgress || s == StatusCancelling
}

// Failed reports a terminal status other than completed.
func (s Status) Failed() bool {
	switch s {
	case StatusFailed, StatusExpired, StatusCancelled, StatusIncomplete:
		return true
	}
	return false
}

// Terminal reports whether the run has stopped for good.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s.Failed()
}

// ToolCall is one function invocation requested by a run.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Run is the polled state of one assistant invocation.
type Run struct {
	ID     string
	Status Status
	// PendingToolCalls is only set while Status is requires_action.
	PendingToolCalls []ToolCall
	LastError        string
}

// ToolOutput answers one ToolCall.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

type Message struct {
	ID        string
	Role      string
	Text      string
	CreatedAt int64
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Latest returns the first message with the given role. Messages are
// expected most recent first, as ListMessages returns them.
func Latest(msgs []Message, role string) (Message, bool) {
	for _, m := range msgs {
		if m.Role == role {
			return m, true
		}
	}
	return Message{}, false
}

// wire shapes

type runResponse struct {
	ID             string `json:"id"`
	Status         Status `json:"status"`
	RequiredAction *struct {
		Type              string `json:"type"`
		SubmitToolOutputs struct {
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

func (r runResponse) toRun() Run {
	run := Run{ID: r.ID, Status: r.Status}
	if r.LastError != nil {
		run.LastError = r.LastError.Message
		if run.LastError == "" {
			run.LastError = r.LastError.Code
		}
	}
	if r.Status == StatusRequiresAction && r.RequiredAction != nil {
		for _, tc := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
			run.PendingToolCalls = append(run.PendingToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return run
}

type messageList struct {
	Data []struct {
		ID        string `json:"id"`
		Role      string `json:"role"`
		CreatedAt int64  `json:"created_at"`
		Content   []struct {
			Type string `json:"type"`
			Text *struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

func (l messageList) toMessages() []Message {
	out := make([]Message, 0, len(l.Data))
	for _, d := range l.Data {
		m := Message{ID: d.ID, Role: d.Role, CreatedAt: d.CreatedAt}
		for _, c := range d.Content {
			if c.Text != nil {
				m.Text = c.Text.Value
				break
			}
		}
		out = append(out, m)
	}
	return out
}
