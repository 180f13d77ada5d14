package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal reads secrets from the controlling terminal without echo. When
// input is not a terminal it reads one line instead.
type Terminal struct {
	in  *os.File
	out io.Writer

	// reader is used for non-terminal input; nil means in.
	reader io.Reader
}

func New() *Terminal { return &Terminal{in: os.Stdin, out: os.Stderr} }

// NewFromReader reads secrets line by line from r.
func NewFromReader(r io.Reader, out io.Writer) *Terminal { return &Terminal{reader: r, out: out} }

func (t *Terminal) Secret(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, _ = fmt.Fprint(t.out, prompt)

	if t.reader == nil && t.in != nil && term.IsTerminal(int(t.in.Fd())) {
		b, err := term.ReadPassword(int(t.in.Fd()))
		_, _ = fmt.Fprintln(t.out)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}

	r := t.reader
	if r == nil {
		r = t.in
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
