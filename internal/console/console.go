package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const UserPrompt = "Tú: "

// Console is the terminal side of a chat: styled output and a line reader.
type Console struct {
	out io.Writer
	in  *bufio.Scanner

	once  sync.Once
	lines chan line

	title     lipgloss.Style
	hint      lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	status    lipgloss.Style
	success   lipgloss.Style
	warn      lipgloss.Style
	err       lipgloss.Style
}

// New returns a console reading lines from in and writing to out. Colors are
// only emitted when out is a terminal that supports them.
func New(in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Console{
		out:       out,
		in:        sc,
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		hint:      r.NewStyle().Foreground(lipgloss.Color("243")),
		user:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		status:    r.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		success:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warn:      r.NewStyle().Foreground(lipgloss.Color("214")),
		err:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

func (c *Console) Banner(title, hint string) {
	fmt.Fprintln(c.out, c.title.Render(title))
	fmt.Fprintln(c.out, c.hint.Render(strings.Repeat("-", len([]rune(title)))))
	if hint != "" {
		fmt.Fprintln(c.out, c.hint.Render(hint))
	}
	fmt.Fprintln(c.out)
}

type line struct {
	text string
	err  error
}

// ReadLine prompts the user and returns the next line without its newline.
// It returns io.EOF once input is exhausted and ctx.Err() if ctx ends first.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.once.Do(c.startReader)
	fmt.Fprint(c.out, "\n"+c.user.Render(UserPrompt))
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// startReader scans input on its own goroutine so a pending read does not
// block cancellation.
func (c *Console) startReader() {
	c.lines = make(chan line)
	go func() {
		defer close(c.lines)
		for c.in.Scan() {
			c.lines <- line{text: strings.TrimRight(c.in.Text(), "\r")}
		}
		if err := c.in.Err(); err != nil {
			c.lines <- line{err: fmt.Errorf("read input: %w", err)}
		}
	}()
}

func (c *Console) Assistant(name, text string) {
	fmt.Fprintf(c.out, "\n%s %s\n", c.assistant.Render(name+":"), text)
}

func (c *Console) Status(text string)  { fmt.Fprintln(c.out, c.status.Render(text)) }
func (c *Console) Success(text string) { fmt.Fprintln(c.out, "\n"+c.success.Render(text)) }
func (c *Console) Warn(text string)    { fmt.Fprintln(c.out, "\n"+c.warn.Render(text)) }
func (c *Console) Error(text string)   { fmt.Fprintln(c.out, "\n"+c.err.Render(text)) }
