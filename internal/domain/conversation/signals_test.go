package conversation

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"mi telefono es 612345678 gracias", "612345678"},
		{"tengo 2 personas", ""},
		{"el 30 a las 15, teléfono 12345", ""},
		{"+34 699112233", "699112233"},
		{"ref 123456 o 6991122334", "6991122334"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPhone(tt.input))
		})
	}
}

func TestLooksLikePhoneInput(t *testing.T) {
	assert.True(t, LooksLikePhoneInput("Mi Teléfono es el siguiente"))
	assert.True(t, LooksLikePhoneInput("699112233"))
	assert.False(t, LooksLikePhoneInput("somos 4 a las 21:00"))
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Me llamo Carlos Ruiz y mi teléfono es 612345678", "Carlos Ruiz"},
		{"mi nombre es Ana. Gracias", "Ana"},
		{"Hola, mi nombre es María José con dos amigos", "María José"},
		{"a nombre de Pedro", ""},
		{"me llamo Lucía, el teléfono es 699", "Lucía"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractName(tt.input))
		})
	}
}

func TestIsConfirmation(t *testing.T) {
	assert.True(t, IsConfirmation("¡Perfecto! Reserva confirmada para el jueves."))
	assert.True(t, IsConfirmation("Entonces QUEDAMOS ASÍ, gracias"))
	assert.True(t, IsConfirmation("Ya está reservado"))
	assert.False(t, IsConfirmation("¿Me indicas tu teléfono?"))
}

func TestIsExitCommand(t *testing.T) {
	assert.True(t, IsExitCommand("salir"))
	assert.True(t, IsExitCommand("  EXIT "))
	assert.False(t, IsExitCommand("quiero salir a cenar"))
}

func TestDateContext(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	now := time.Date(2025, 4, 29, 22, 30, 0, 0, time.UTC)
	msg := DateContext(now, loc)
	assert.Contains(t, msg, "Europe/Madrid")
	assert.Contains(t, msg, "miércoles, 30 de abril de 2025")
	assert.Contains(t, msg, "date=2025-04-30, time=00:30:00")
	assert.True(t, strings.HasSuffix(msg, "no estén en el pasado."))
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "¡Hola! Soy Andy, el agente virtual del Restaurante Park. ¿En qué puedo ayudarte?",
		Greeting("Andy", "Restaurante Park"))
	assert.Equal(t, "¡Hasta luego! Gracias por contactar al Restaurante Park.", Farewell("Restaurante Park"))
}
