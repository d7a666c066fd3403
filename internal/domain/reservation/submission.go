package reservation

import (
	"fmt"
	"time"
)

// Merge combines an extraction result with the draft. Identifiers always come
// from the draft because only the availability check can produce them; empty
// extracted fields fall back to what the draft already knows.
func Merge(d Draft, e Extracted) Extracted {
	e.TableID = d.TableID
	e.SlotID = d.SlotID
	e.TableRef = d.TableRef

	if e.Date == "" {
		e.Date = d.Date
	}
	if e.Time == "" {
		e.Time = d.Time
	}
	if e.Guests == "" && d.PartySize > 0 {
		e.Guests = fmt.Sprint(d.PartySize)
	}
	if e.Name == "" {
		e.Name = d.CustomerName
	}
	if e.Phone == "" {
		e.Phone = d.CustomerPhone
	}
	if e.SpecialRequests == "" {
		e.SpecialRequests = d.SpecialRequests
	}
	return e
}

// Submission is the final webhook payload.
type Submission struct {
	Message SubmissionMessage `json:"message"`
}

type SubmissionMessage struct {
	Analysis Analysis `json:"analysis"`
}

type Analysis struct {
	Summary         string         `json:"summary"`
	StructuredData  StructuredData `json:"structuredData"`
	DurationSeconds int64          `json:"durationSeconds"`
	StartedAt       string         `json:"startedAt"`
	Cost            string         `json:"cost"`
	Type            string         `json:"type"`
}

type StructuredData struct {
	Reserva bool `json:"Reserva"`
	Extracted
}

// Summary is the one-line human description sent with a submission.
func Summary(e Extracted) string {
	s := fmt.Sprintf("Reserva para %s el %s a las %s para %s personas.", e.Name, e.Date, e.Time, e.Guests)
	if e.SpecialRequests != "" {
		s += " Solicitudes especiales: " + e.SpecialRequests
	}
	return s
}

// NewSubmission builds the payload for a conversation that began at startedAt.
func NewSubmission(e Extracted, startedAt, now time.Time, cost string) Submission {
	dur := now.Sub(startedAt)
	if dur < 0 {
		dur = 0
	}
	return Submission{Message: SubmissionMessage{Analysis: Analysis{
		Summary:         Summary(e),
		StructuredData:  StructuredData{Reserva: true, Extracted: e},
		DurationSeconds: int64(dur / time.Second),
		StartedAt:       startedAt.UTC().Format(time.RFC3339Nano),
		Cost:            cost,
		Type:            "text",
	}}}
}
