package notify

import (
	"context"

	"go.uber.org/zap"
)

// Console logs outbound messages instead of sending them. Used when the bot
// runs without platform credentials.
type Console struct {
	logger *zap.Logger
}

// NewConsole creates a console notifier.
func NewConsole(logger *zap.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Reply(_ context.Context, replyToken string, msgs ...Message) error {
	for _, m := range msgs {
		c.logger.Info("reply", zap.String("reply_token", replyToken), messageField(m))
	}
	return nil
}

func (c *Console) Push(_ context.Context, to string, msgs ...Message) error {
	for _, m := range msgs {
		c.logger.Info("push", zap.String("to", to), messageField(m))
	}
	return nil
}

func messageField(m Message) zap.Field {
	switch v := m.(type) {
	case Text:
		return zap.String("text", v.Body)
	case Card:
		labels := make([]string, 0, len(v.Actions))
		for _, a := range v.Actions {
			labels = append(labels, a.Label)
		}
		return zap.Dict("card",
			zap.String("title", v.Title),
			zap.String("body", v.Body),
			zap.Strings("actions", labels),
		)
	default:
		return zap.Skip()
	}
}
