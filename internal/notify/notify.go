// Package notify defines the outbound chat messages and the contract for
// sending them. Sends are single best-effort attempts.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotify marks a failed outbound reply or push.
var ErrNotify = errors.New("notification failed")

// Message is either Text or Card.
type Message interface {
	message()
}

// Text is a plain text message.
type Text struct {
	Body string
}

// Card is a titled message with tappable actions.
type Card struct {
	AltText string
	Title   string
	Body    string
	Actions []Action
}

// Action is a postback when Data is set, otherwise a text trigger that echoes
// Text back as a new inbound message.
type Action struct {
	Label string
	Data  string
	Text  string
}

func (Text) message() {}
func (Card) message() {}

// Notifier sends messages to the chat platform.
type Notifier interface {
	// Reply answers one inbound event; a token may be used at most once.
	Reply(ctx context.Context, replyToken string, msgs ...Message) error
	// Push sends to a persistent user or group id.
	Push(ctx context.Context, to string, msgs ...Message) error
}

// Failed wraps err so that it matches ErrNotify.
func Failed(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrNotify, err))
}
