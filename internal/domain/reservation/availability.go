package reservation

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	noAvailabilityPhrase = "no hay disponibilidad"
	statusPrefix         = "disponible:"
	unrecognizedShape    = "formato de respuesta no reconocido"
)

// AvailabilityResult is the outcome of one availability check. Its JSON form
// is what the assistant receives as the tool output.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	TableID   string `json:"mesa_id"`
	SlotID    string `json:"dispo_id"`
	TableRef  string `json:"idmesa,omitempty"`
	Raw       string `json:"result"`
	Error     string `json:"error,omitempty"`
}

// JSON is the tool-output encoding of r.
func (r AvailabilityResult) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"available":false}`
	}
	return string(b)
}

type bodyKind int

const (
	bodyUnknown bodyKind = iota
	bodyPlain
	bodyEnvelope
)

// ParseAvailability decodes a webhook response. It never fails: shapes it
// does not understand produce Available=false with a diagnostic.
func ParseAvailability(raw []byte) AvailabilityResult {
	text, kind := classifyBody(raw)
	switch kind {
	case bodyPlain:
		if isStatusLine(text) {
			return parseStatusLine(text)
		}
		return AvailabilityResult{
			Available: !strings.Contains(strings.ToLower(text), noAvailabilityPhrase),
			Raw:       text,
		}
	case bodyEnvelope:
		if isStatusLine(text) {
			return parseStatusLine(text)
		}
		return AvailabilityResult{
			Available: strings.Contains(strings.ToLower(text), "disponible:true"),
			Raw:       text,
		}
	default:
		return AvailabilityResult{Raw: string(raw), Error: unrecognizedShape}
	}
}

func classifyBody(raw []byte) (string, bodyKind) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", bodyUnknown
	}
	if !json.Valid(trimmed) {
		if trimmed[0] == '{' || trimmed[0] == '[' {
			return "", bodyUnknown
		}
		return string(trimmed), bodyPlain
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", bodyUnknown
		}
		return s, bodyPlain
	case '{':
		var env struct {
			Results []struct {
				Result json.RawMessage `json:"result"`
			} `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil || len(env.Results) == 0 {
			return "", bodyUnknown
		}
		var s string
		if err := json.Unmarshal(env.Results[0].Result, &s); err != nil {
			return "", bodyUnknown
		}
		return s, bodyEnvelope
	}
	return "", bodyUnknown
}

func isStatusLine(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= len(statusPrefix) && strings.EqualFold(s[:len(statusPrefix)], statusPrefix)
}

// parseStatusLine reads "disponible:<bool>,idmesa_mesas:<id>,idmesa_disp:<id>[,idmesa:<id>]".
// Identifier segments are recognized by their marker, not their position.
func parseStatusLine(s string) AvailabilityResult {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ",")
	res := AvailabilityResult{Raw: s}

	flag := segmentValue(parts[0])
	res.Available = strings.EqualFold(flag, "Disponible") || strings.EqualFold(flag, "true")

	for _, p := range parts[1:] {
		key := strings.ToLower(p)
		switch {
		case strings.Contains(key, "idmesa_mesas"):
			res.TableID = segmentValue(p)
		case strings.Contains(key, "idmesa_disp"):
			res.SlotID = segmentValue(p)
		case strings.Contains(key, "idmesa"):
			res.TableRef = segmentValue(p)
		}
	}
	return res
}

func segmentValue(seg string) string {
	_, v, ok := strings.Cut(seg, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
