// Package bot routes inbound chat events to the form, the identity linker
// and the attendance reports.
package bot

// Kind is the inbound event type.
type Kind string

const (
	KindMessage  Kind = "message"
	KindPostback Kind = "postback"
	KindOther    Kind = "other"
)

// Event is a platform-neutral inbound chat event.
type Event struct {
	Kind         Kind
	ChatUserID   string
	GroupID      string // set when sent from a group or room
	ReplyToken   string
	MessageType  string // "text" for text messages
	Text         string
	PostbackData string
}

// IsText reports whether e is a text message.
func (e Event) IsText() bool {
	return e.Kind == KindMessage && e.MessageType == "text"
}
