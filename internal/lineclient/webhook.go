package lineclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"attendbot/internal/bot"
)

// ErrInvalidSignature means the callback was not signed with the channel secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ParseRequest verifies and decodes a webhook callback.
func ParseRequest(channelSecret string, r *http.Request) ([]bot.Event, error) {
	cb, err := webhook.ParseRequest(channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("parse webhook: %w", err)
	}
	events := make([]bot.Event, 0, len(cb.Events))
	for _, e := range cb.Events {
		events = append(events, convert(e))
	}
	return events, nil
}

func convert(e webhook.EventInterface) bot.Event {
	switch e := e.(type) {
	case webhook.MessageEvent:
		ev := bot.Event{Kind: bot.KindMessage, ReplyToken: e.ReplyToken}
		ev.ChatUserID, ev.GroupID = source(e.Source)
		if e.Message != nil {
			ev.MessageType = e.Message.GetType()
		}
		if txt, ok := e.Message.(webhook.TextMessageContent); ok {
			ev.MessageType = "text"
			ev.Text = txt.Text
		}
		return ev
	case webhook.PostbackEvent:
		ev := bot.Event{Kind: bot.KindPostback, ReplyToken: e.ReplyToken}
		ev.ChatUserID, ev.GroupID = source(e.Source)
		if e.Postback != nil {
			ev.PostbackData = e.Postback.Data
		}
		return ev
	default:
		return bot.Event{Kind: bot.KindOther}
	}
}

func source(s webhook.SourceInterface) (userID, groupID string) {
	switch s := s.(type) {
	case webhook.UserSource:
		return s.UserId, ""
	case webhook.GroupSource:
		return s.UserId, s.GroupId
	case webhook.RoomSource:
		return s.UserId, s.RoomId
	}
	return "", ""
}
