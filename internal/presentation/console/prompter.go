package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"envsync/internal/application/service"
	"envsync/internal/domain/envvar"

	"golang.org/x/term"
)

// InputOpener yields the reader the answer is read from
type InputOpener func() (io.Reader, func() error, error)

// Prompter asks for a typed "yes" before a plan is applied
type Prompter struct {
	open InputOpener
	out  io.Writer
}

// NewPrompter creates a prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		open: func() (io.Reader, func() error, error) {
			return in, func() error { return nil }, nil
		},
		out: out,
	}
}

// NewTerminalPrompter reads answers from stdin, or from the controlling
// terminal when stdin carries the variables themselves.
func NewTerminalPrompter(stdin *os.File, stdinIsData bool, out io.Writer) *Prompter {
	return &Prompter{open: terminalOpener(stdin, stdinIsData), out: out}
}

func terminalOpener(stdin *os.File, stdinIsData bool) InputOpener {
	return func() (io.Reader, func() error, error) {
		if !stdinIsData {
			return stdin, func() error { return nil }, nil
		}
		tty, err := os.Open("/dev/tty")
		if err != nil || !term.IsTerminal(int(tty.Fd())) {
			if tty != nil {
				tty.Close()
			}
			return nil, nil, envvar.ErrConfiguration(
				"cannot ask for confirmation: stdin is used for input and no terminal is attached",
				"re-run with --yes to skip confirmation",
			)
		}
		return tty, tty.Close, nil
	}
}

// Confirm renders plan and blocks until one line is read. Only "yes", in
// any case, approves; end of input counts as a refusal.
func (p *Prompter) Confirm(ctx context.Context, plan envvar.Plan) (bool, error) {
	in, closeFn, err := p.open()
	if err != nil {
		return false, err
	}
	defer closeFn()

	RenderPlan(p.out, service.ToPlanView(plan))
	fmt.Fprint(p.out, "Apply these changes? Type 'yes' to continue: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(p.out)
	}

	return IsApproval(answer), nil
}

// IsApproval reports whether answer is exactly "yes", ignoring case and
// surrounding whitespace.
func IsApproval(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}
