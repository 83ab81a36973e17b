// Package notifytest provides a recording notify.Notifier for tests.
package notifytest

import (
	"context"
	"sync"

	"attendbot/internal/notify"
)

// Sent is one recorded call.
type Sent struct {
	Reply    bool
	Target   string // reply token or push target
	Messages []notify.Message
}

// Recorder records every call and optionally fails them.
type Recorder struct {
	mu       sync.Mutex
	sent     []Sent
	PushErr  error
	ReplyErr error
}

func (r *Recorder) Reply(_ context.Context, token string, msgs ...notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReplyErr != nil {
		return notify.Failed("reply", r.ReplyErr)
	}
	r.sent = append(r.sent, Sent{Reply: true, Target: token, Messages: msgs})
	return nil
}

func (r *Recorder) Push(_ context.Context, to string, msgs ...notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PushErr != nil {
		return notify.Failed("push", r.PushErr)
	}
	r.sent = append(r.sent, Sent{Target: to, Messages: msgs})
	return nil
}

// All returns a copy of the recorded calls.
func (r *Recorder) All() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Replies returns the text bodies replied to token, in order.
func (r *Recorder) Replies(token string) []string {
	var out []string
	for _, s := range r.All() {
		if s.Reply && s.Target == token {
			out = append(out, texts(s.Messages)...)
		}
	}
	return out
}

// Pushes returns the recorded pushes to target.
func (r *Recorder) Pushes(target string) []Sent {
	var out []Sent
	for _, s := range r.All() {
		if !s.Reply && s.Target == target {
			out = append(out, s)
		}
	}
	return out
}

func texts(msgs []notify.Message) []string {
	var out []string
	for _, m := range msgs {
		if t, ok := m.(notify.Text); ok {
			out = append(out, t.Body)
		}
	}
	return out
}
