package robot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pauser blocks a paused run until the operator resumes it.
type Pauser interface {
	Wait(ctx context.Context, message string) error
}

// AutoResume resumes every pause immediately.
type AutoResume struct{}

// Wait implements Pauser.
func (AutoResume) Wait(ctx context.Context, _ string) error {
	return ctx.Err()
}

var (
	pauseTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226"))

	pauseBodyStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	pauseHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// ConsolePauser prints the operator message and waits for Enter.
type ConsolePauser struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePauser reads resumes from in and writes prompts to out.
func NewConsolePauser(in io.Reader, out io.Writer) *ConsolePauser {
	return &ConsolePauser{in: bufio.NewReader(in), out: out}
}

// Render formats a pause message the way it is shown to the operator.
func Render(message string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		pauseTitleStyle.Render("PAUSED"),
		pauseBodyStyle.Render(strings.TrimSpace(message)),
		pauseHintStyle.Render("Press Enter to resume."),
	)
}

// Wait implements Pauser. It returns when a line is read, the input ends or
// ctx is done.
func (p *ConsolePauser) Wait(ctx context.Context, message string) error {
	if _, err := fmt.Fprintln(p.out, Render(message)); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := p.in.ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
