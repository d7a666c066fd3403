package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ASSISTANT_ID", "N8N_WEBHOOK_URL", "DATABASE_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "reservabot dev (commit=none, built=unknown)\n", out)
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"chat", "webhook", "history", "version"})
	assert.NotNil(t, root.Flags().Lookup("transcript"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	history, _, err := root.Find([]string{"history"})
	require.NoError(t, err)
	assert.NotNil(t, history.Flags().Lookup("session"))
}

func TestChat_RequiresCredentials(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, "chat")
	assert.EqualError(t, err, "OPENAI_API_KEY is required")
}

func TestWebhookCheck(t *testing.T) {
	isolateEnv(t)
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = w.Write([]byte(`disponible:Disponible,idmesa_mesas:R1,idmesa_disp:D1`))
	}))
	defer srv.Close()
	t.Setenv("N8N_WEBHOOK_URL", srv.URL)

	out, err := execute(t, "webhook", "check", "--date", "2025-05-01", "--time", "21:00", "--guests", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "available=true mesa_id=R1 dispo_id=D1")

	call := got["message"].(map[string]any)["toolCalls"].([]any)[0].(map[string]any)
	assert.JSONEq(t, `{"reserva_fecha":"2025-05-01","hora":"21:00","reserva_invitados":4}`,
		call["function"].(map[string]any)["arguments"].(string))
}

func TestWebhookCheck_BadDate(t *testing.T) {
	isolateEnv(t)
	t.Setenv("N8N_WEBHOOK_URL", "http://127.0.0.1:1")
	_, err := execute(t, "webhook", "check", "--date", "mañana", "--time", "21:00")
	assert.EqualError(t, err, "invalid --date (want YYYY-MM-DD)")
}

func TestWebhookConfirm(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	t.Setenv("N8N_WEBHOOK_URL", srv.URL)

	_, err := execute(t, "webhook", "confirm", "--date", "2025-05-01", "--time", "21:00")
	assert.ErrorContains(t, err, "missing fields")

	out, err := execute(t, "webhook", "confirm", "--date", "2025-05-01", "--time", "21:00", "--guests", "2",
		"--name", "Ana", "--phone", "699112233", "--mesa-id", "M1")
	require.NoError(t, err)
	assert.Contains(t, out, `summary="Reserva para Ana el 2025-05-01 a las 21:00 para 2 personas."`)
	assert.Contains(t, out, `response={"ok":true}`)
}

func TestHistory_RequiresDatabase(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, "history")
	assert.EqualError(t, err, "DATABASE_URL is required")
}
