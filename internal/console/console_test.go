package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("hola\r\nsalir\n"), &out)

	line, err := c.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hola", line)

	line, err = c.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "salir", line)

	_, err = c.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, strings.Count(out.String(), UserPrompt))
}

func TestOutputIsPlainWhenNotATerminal(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out)

	c.Banner("ASISTENTE DE RESERVAS", `Escribe "salir" para terminar`)
	c.Assistant("Andy", "¿Para cuántas personas?")
	c.Error("Algo salió mal")

	s := out.String()
	assert.NotContains(t, s, "\x1b[")
	assert.Contains(t, s, "ASISTENTE DE RESERVAS\n---------------------\n")
	assert.Contains(t, s, "Andy: ¿Para cuántas personas?")
	assert.Contains(t, s, "Algo salió mal")
}

func TestReadLine_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	c := New(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ReadLine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
