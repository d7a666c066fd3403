package chat

import (
	"strconv"
	"time"

	"github.com/example/reserva-bot/internal/domain/reservation"
	"github.com/example/reserva-bot/internal/transcript"
)

// State is where a session is in the reservation flow.
type State int

const (
	StateGreeting State = iota
	StateCollecting
	StateAvailabilityCheckPending
	StatePhoneCollection
	StateFinalizing
	StateRetrying
	StateSubmitted
	StateUserExit
)

var stateNames = map[State]string{
	StateGreeting:                 "greeting",
	StateCollecting:               "collecting",
	StateAvailabilityCheckPending: "availability_check_pending",
	StatePhoneCollection:          "phone_collection",
	StateFinalizing:               "finalizing",
	StateRetrying:                 "retrying",
	StateSubmitted:                "submitted",
	StateUserExit:                 "user_exit",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Done reports whether the conversation loop should stop.
func (s State) Done() bool { return s == StateSubmitted || s == StateUserExit }

// Session is the state of one conversation. It lives only as long as the
// chat loop that created it.
type Session struct {
	ID       string
	ThreadID string
	Draft    reservation.Draft

	AvailabilityChecked     bool
	PhoneCollected          bool
	ConfirmationPromptShown bool

	StartedAt time.Time
	State     State

	Entries []transcript.Entry
}

func (s *Session) record(role, text string, at time.Time) {
	s.Entries = append(s.Entries, transcript.Entry{Role: role, Text: text, At: at})
}

// Transcript snapshots the session for export.
func (s *Session) Transcript() transcript.Transcript {
	t := transcript.Transcript{
		SessionID:  s.ID,
		ThreadID:   s.ThreadID,
		StartedAt:  s.StartedAt,
		FinalState: s.State.String(),
		Entries:    s.Entries,
	}
	d := s.Draft
	fields := map[string]string{
		"reserva_fecha":          d.Date,
		"reserva_hora":           d.Time,
		"reserva_nombre":         d.CustomerName,
		"reserva_telefono":       d.CustomerPhone,
		"solicitudes_especiales": d.SpecialRequests,
		"reserva_idMesa":         d.TableID,
		"reserva_idDispo":        d.SlotID,
		"reserva_idMesaRef":      d.TableRef,
	}
	if d.PartySize > 0 {
		fields["reserva_invitados"] = strconv.Itoa(d.PartySize)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if t.Reservation == nil {
			t.Reservation = map[string]string{}
		}
		t.Reservation[k] = v
	}
	return t
}
