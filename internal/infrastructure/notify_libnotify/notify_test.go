package notify_libnotify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/stretchr/testify/assert"
)

type captured struct {
	name string
	args []string
	err  error
}

func (c *captured) run(_ context.Context, name string, args ...string) error {
	c.name, c.args = name, args
	return c.err
}

func TestNotify_BuildsArgs(t *testing.T) {
	c := &captured{}
	n := New().WithOptions(Options{Urgency: "normal", Expire: 5 * time.Second})
	n.command = c.run

	err := n.Notify(context.Background(), domain.Notification{
		Title: "QFieldCloud sync: ok",
		Body:  "survey: 4 remote files",
		URL:   "https://app.qfield.cloud/a/alice/survey",
	})

	assert.NoError(t, err)
	assert.Equal(t, "notify-send", c.name)
	assert.Equal(t, []string{
		"--app-name=qfc-sync",
		"--urgency=normal",
		"--expire-time=5000",
		"QFieldCloud sync: ok",
		"survey: 4 remote files\nhttps://app.qfield.cloud/a/alice/survey",
	}, c.args)
}

func TestNotify_UrgentOverridesUrgency(t *testing.T) {
	c := &captured{}
	n := NewSoft().WithOptions(Options{Urgency: "low"})
	n.command = c.run

	err := n.Notify(context.Background(), domain.Notification{
		Title:  "QFieldCloud sync: failed",
		Body:   "upload: boom",
		Urgent: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{
		"--app-name=qfc-sync",
		"--urgency=critical",
		"QFieldCloud sync: failed",
		"upload: boom",
	}, c.args)
}

func TestNotify_SoftSwallowsErrors(t *testing.T) {
	c := &captured{err: errors.New("notify-send: not found")}
	msg := domain.Notification{Title: "t", Body: "b"}

	hard := New()
	hard.command = c.run
	assert.Error(t, hard.Notify(context.Background(), msg))

	soft := NewSoft()
	soft.command = c.run
	assert.NoError(t, soft.Notify(context.Background(), msg))
	assert.Equal(t, []string{"--app-name=qfc-sync", "t", "b"}, c.args)
}
