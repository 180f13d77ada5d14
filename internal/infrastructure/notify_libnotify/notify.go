package notify_libnotify

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
)

const appName = "qfc-sync"

// Notifier shows desktop notifications through notify-send. A soft notifier
// swallows failures, e.g. on headless machines.
type Notifier struct {
	soft bool
	opt  Options
	// command is replaceable in tests.
	command func(ctx context.Context, name string, args ...string) error
}

func New() *Notifier     { return &Notifier{command: run} }
func NewSoft() *Notifier { return &Notifier{soft: true, command: run} }

type Options struct {
	// Urgency applies to regular messages. Urgent ones are always critical.
	Urgency string
	Expire  time.Duration
}

// WithOptions sets the urgency and expiry used by Notify.
func (n *Notifier) WithOptions(opt Options) *Notifier {
	n.opt = opt
	return n
}

func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	body := msg.Body
	if url := strings.TrimSpace(msg.URL); url != "" {
		if body == "" {
			body = url
		} else {
			body = body + "\n" + url
		}
	}

	urgency := n.opt.Urgency
	if msg.Urgent {
		urgency = "critical"
	}

	args := []string{"--app-name=" + appName}
	if urgency != "" {
		args = append(args, "--urgency="+urgency)
	}
	if n.opt.Expire > 0 {
		ms := strconv.Itoa(int(n.opt.Expire / time.Millisecond))
		args = append(args, "--expire-time="+ms)
	}
	args = append(args, msg.Title, body)

	if err := n.command(ctx, "notify-send", args...); err != nil {
		if n.soft {
			return nil
		}
		return err
	}

	return nil
}

func run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
