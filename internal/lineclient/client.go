// Package lineclient adapts the LINE Messaging API to notify.Notifier and
// turns webhook callbacks into bot events.
package lineclient

import (
	"context"
	"fmt"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"

	"attendbot/internal/notify"
)

// maxMessages is the platform's per-call message limit.
const maxMessages = 5

// Client sends replies and pushes. One Client is created at startup and
// shared by all handlers.
type Client struct {
	api     *messaging_api.MessagingApiAPI
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a client for the channel access token. Each call is bounded by
// timeout.
func New(accessToken string, timeout time.Duration, logger *zap.Logger, opts ...messaging_api.MessagingApiAPIOption) (*Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("line messaging api: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{api: api, timeout: timeout, logger: logger}, nil
}

// with returns a copy of the API bound to ctx. WithContext mutates its
// receiver, so concurrent callers must not share one.
func (c *Client) with(ctx context.Context) *messaging_api.MessagingApiAPI {
	api := *c.api
	return api.WithContext(ctx)
}

func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...notify.Message) error {
	if replyToken == "" || len(msgs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.with(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   toLine(msgs),
	})
	if err != nil {
		return notify.Failed("line reply", err)
	}
	c.logger.Debug("line reply sent", zap.Int("messages", len(msgs)))
	return nil
}

func (c *Client) Push(ctx context.Context, to string, msgs ...notify.Message) error {
	if to == "" {
		return notify.Failed("line push", fmt.Errorf("empty target"))
	}
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.with(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: toLine(msgs),
	}, "")
	if err != nil {
		return notify.Failed("line push", err)
	}
	c.logger.Debug("line push sent", zap.String("to", to), zap.Int("messages", len(msgs)))
	return nil
}

func toLine(msgs []notify.Message) []messaging_api.MessageInterface {
	if len(msgs) > maxMessages {
		msgs = msgs[:maxMessages]
	}
	out := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, m := range msgs {
		switch m := m.(type) {
		case notify.Text:
			out = append(out, &messaging_api.TextMessage{Text: m.Body})
		case notify.Card:
			out = append(out, buttons(m))
		}
	}
	return out
}

func buttons(card notify.Card) *messaging_api.TemplateMessage {
	actions := make([]messaging_api.ActionInterface, 0, len(card.Actions))
	for _, a := range card.Actions {
		if a.Data != "" {
			actions = append(actions, &messaging_api.PostbackAction{Label: a.Label, Data: a.Data, DisplayText: a.Label})
			continue
		}
		actions = append(actions, &messaging_api.MessageAction{Label: a.Label, Text: a.Text})
	}
	alt := card.AltText
	if alt == "" {
		alt = card.Title
	}
	return &messaging_api.TemplateMessage{
		AltText: alt,
		Template: &messaging_api.ButtonsTemplate{
			Title:   card.Title,
			Text:    card.Body,
			Actions: actions,
		},
	}
}
