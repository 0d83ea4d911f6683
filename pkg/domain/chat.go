package domain

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

const GreetingMessageID = "initial-bot-message"

type Chat struct {
	ID       int64
	Messages []ChatMessage
}

type ChatMessage struct {
	ID        string
	Text      string
	Sender    Sender
	Language  string
	Timestamp time.Time
}

// History returns the messages worth sending back to the model: the greeting
// and blank messages carry no conversational context.
func (c Chat) History() []ChatMessage {
	out := make([]ChatMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.ID == GreetingMessageID || isBlank(m.Text) {
			continue
		}
		out = append(out, m)
	}
	return out
}
