package transcript

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Entry is one line of the conversation as the user saw it.
type Entry struct {
	Role string    `yaml:"role"`
	Text string    `yaml:"text"`
	At   time.Time `yaml:"at"`
}

// Transcript is the exported record of one chat session.
type Transcript struct {
	SessionID   string            `yaml:"session_id"`
	ThreadID    string            `yaml:"thread_id"`
	StartedAt   time.Time         `yaml:"started_at"`
	FinalState  string            `yaml:"final_state"`
	Reservation map[string]string `yaml:"reservation,omitempty"`
	Entries     []Entry           `yaml:"entries"`
}

// Export writes t as YAML.
func Export(t Transcript, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode transcript: %w", err)
	}
	return enc.Close()
}

// WriteFile exports t to path, replacing any existing file.
func WriteFile(path string, t Transcript) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	if err := Export(t, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
