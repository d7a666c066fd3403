package reservation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAvailability(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want AvailabilityResult
	}{
		{
			name: "status line available",
			raw:  "disponible:Disponible,idmesa_mesas:R1,idmesa_disp:D1",
			want: AvailabilityResult{Available: true, TableID: "R1", SlotID: "D1", Raw: "disponible:Disponible,idmesa_mesas:R1,idmesa_disp:D1"},
		},
		{
			name: "status line false without identifiers",
			raw:  "disponible:false",
			want: AvailabilityResult{Available: false, Raw: "disponible:false"},
		},
		{
			name: "status line true is case insensitive",
			raw:  "Disponible: TRUE , idmesa_disp: D7",
			want: AvailabilityResult{Available: true, SlotID: "D7", Raw: "Disponible: TRUE , idmesa_disp: D7"},
		},
		{
			name: "identifiers found by marker not position",
			raw:  "disponible:true,idmesa_disp:D2,idmesa:X9,idmesa_mesas:M2",
			want: AvailabilityResult{Available: true, TableID: "M2", SlotID: "D2", TableRef: "X9", Raw: "disponible:true,idmesa_disp:D2,idmesa:X9,idmesa_mesas:M2"},
		},
		{
			name: "plain text no availability",
			raw:  "no hay disponibilidad hoy",
			want: AvailabilityResult{Available: false, Raw: "no hay disponibilidad hoy"},
		},
		{
			name: "plain text no availability upper case",
			raw:  "NO HAY DISPONIBILIDAD",
			want: AvailabilityResult{Available: false, Raw: "NO HAY DISPONIBILIDAD"},
		},
		{
			name: "other plain text is available",
			raw:  "mesa libre a las 14:00",
			want: AvailabilityResult{Available: true, Raw: "mesa libre a las 14:00"},
		},
		{
			name: "json string body",
			raw:  `"no hay disponibilidad"`,
			want: AvailabilityResult{Available: false, Raw: "no hay disponibilidad"},
		},
		{
			name: "envelope with status line",
			raw:  `{"results":[{"result":"disponible:true,idmesa_mesas:M1,idmesa_disp:D1"}]}`,
			want: AvailabilityResult{Available: true, TableID: "M1", SlotID: "D1", Raw: "disponible:true,idmesa_mesas:M1,idmesa_disp:D1"},
		},
		{
			name: "envelope with free text",
			raw:  `{"results":[{"result":"lo siento, completo"}]}`,
			want: AvailabilityResult{Available: false, Raw: "lo siento, completo"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAvailability([]byte(tt.raw)))
		})
	}
}

func TestParseAvailability_Unrecognized(t *testing.T) {
	for _, raw := range []string{`{"foo":1}`, `{foo:1}`, `[1,2]`, `42`, ``, `{"results":[{"result":{"ok":true}}]}`, `{"results":[]}`} {
		t.Run(raw, func(t *testing.T) {
			var got AvailabilityResult
			require.NotPanics(t, func() { got = ParseAvailability([]byte(raw)) })
			assert.False(t, got.Available)
			assert.NotEmpty(t, got.Error)
			assert.Equal(t, raw, got.Raw)
		})
	}
}

func TestParseAvailability_Pure(t *testing.T) {
	raw := []byte(`{"results":[{"result":"disponible:Disponible,idmesa_mesas:R1,idmesa_disp:D1"}]}`)
	first := ParseAvailability(raw)
	second := ParseAvailability(raw)
	assert.Equal(t, first, second)
}

func TestAvailabilityResult_JSON(t *testing.T) {
	r := AvailabilityResult{Available: true, TableID: "M1", SlotID: "D1", Raw: "disponible:true"}

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.JSON()), &m))
	assert.Equal(t, true, m["available"])
	assert.Equal(t, "M1", m["mesa_id"])
	assert.Equal(t, "D1", m["dispo_id"])
	assert.NotContains(t, m, "error")
	assert.NotContains(t, m, "idmesa")
}
