package reservation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Draft is the reservation accumulated over one conversation.
type Draft struct {
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	PartySize       int
	CustomerName    string
	CustomerPhone   string
	SpecialRequests string

	// Identifiers handed out by the availability check. They are carried to
	// submission untouched.
	TableID  string // idmesa_mesas
	SlotID   string // idmesa_disp
	TableRef string // idmesa
}

// HasSchedule reports whether date, time and party size are all known.
func (d Draft) HasSchedule() bool {
	return d.Date != "" && d.Time != "" && d.PartySize > 0
}

// ApplyArgs copies the schedule the assistant asked availability for.
func (d *Draft) ApplyArgs(a AvailabilityArgs) {
	if a.Date != "" {
		d.Date = a.Date
	}
	if a.Time != "" {
		d.Time = a.Time
	}
	if n := a.PartySize(); n > 0 {
		d.PartySize = n
	}
}

// ApplyResult stores the identifiers of a successful availability check.
// Empty identifiers never clear earlier ones.
func (d *Draft) ApplyResult(r AvailabilityResult) {
	if r.TableID != "" {
		d.TableID = r.TableID
	}
	if r.SlotID != "" {
		d.SlotID = r.SlotID
	}
	if r.TableRef != "" {
		d.TableRef = r.TableRef
	}
}

// AvailabilityArgs are the checkAvailability tool-call arguments.
type AvailabilityArgs struct {
	Date   string     `json:"reserva_fecha"`
	Time   string     `json:"hora"`
	Guests FlexString `json:"reserva_invitados"`
}

func (a AvailabilityArgs) PartySize() int {
	n, err := ParseGuests(string(a.Guests))
	if err != nil {
		return 0
	}
	return n
}

// ParseGuests reads a party size written as digits.
func ParseGuests(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("party size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("party size %q: negative", s)
	}
	return n, nil
}

// ParseArgs decodes a tool-call argument payload.
func ParseArgs(raw string) (AvailabilityArgs, error) {
	var a AvailabilityArgs
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return AvailabilityArgs{}, fmt.Errorf("availability args: %w", err)
	}
	return a, nil
}

// FlexString accepts a JSON string, number or bool and keeps its text form.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	s, ok := scalarString(v)
	if !ok {
		return fmt.Errorf("unsupported value %s", string(b))
	}
	*f = FlexString(s)
	return nil
}

// Extracted is the reservation as summarized by the assistant from the whole
// conversation. Every field is always present.
type Extracted struct {
	Date            string `json:"reserva_fecha"`
	Time            string `json:"reserva_hora"`
	Guests          string `json:"reserva_invitados"`
	Name            string `json:"reserva_nombre"`
	Phone           string `json:"reserva_telefono"`
	SpecialRequests string `json:"solicitudes_especiales"`

	TableID  string `json:"reserva_idMesa"`
	SlotID   string `json:"reserva_idDispo"`
	TableRef string `json:"reserva_idMesaRef,omitempty"`
}

// Missing lists the required fields that are still empty.
func (e Extracted) Missing() []string {
	var out []string
	for _, f := range []struct{ key, val string }{
		{"reserva_fecha", e.Date},
		{"reserva_hora", e.Time},
		{"reserva_invitados", e.Guests},
		{"reserva_nombre", e.Name},
		{"reserva_telefono", e.Phone},
	} {
		if strings.TrimSpace(f.val) == "" {
			out = append(out, f.key)
		}
	}
	return out
}

// DecodeExtracted decodes a JSON object into Extracted. Numbers and bools are
// converted to text and absent keys become "".
func DecodeExtracted(b []byte) (Extracted, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return Extracted{}, fmt.Errorf("decode extracted reservation: %w", err)
	}
	if m == nil {
		return Extracted{}, fmt.Errorf("decode extracted reservation: not an object")
	}
	get := func(k string) string {
		s, _ := scalarString(m[k])
		return strings.TrimSpace(s)
	}
	return Extracted{
		Date:            get("reserva_fecha"),
		Time:            get("reserva_hora"),
		Guests:          get("reserva_invitados"),
		Name:            get("reserva_nombre"),
		Phone:           get("reserva_telefono"),
		SpecialRequests: get("solicitudes_especiales"),
		TableID:         get("reserva_idMesa"),
		SlotID:          get("reserva_idDispo"),
		TableRef:        get("reserva_idMesaRef"),
	}, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
