package telegram

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
	"github.com/dskvich/nyay-sahayak-bot/pkg/render"
)

const (
	loadingCursor = " ▍"
	// htmlSlack leaves room for the tags ToHTML adds to a Markdown chunk.
	htmlSlack = 512
)

// reply is the Telegram message showing one generated reply.
type reply struct {
	chatID    int64
	messageID int
	shownAt   time.Time
}

func (c *client) reply(id string, chatID int64) *reply {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.replies[id]
	if !ok {
		r = &reply{chatID: chatID}
		c.replies[id] = r
	}
	return r
}

func (c *client) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.replies, id)
}

// PublishSnapshot shows a reply while it is generated: the first snapshot
// sends a message and later ones edit it, at most once per edit interval.
// The terminal snapshot is always shown, rendered from Markdown, and carries
// the keyboard.
func (c *client) PublishSnapshot(ctx context.Context, chatID int64, s domain.Snapshot, keyboard *domain.Keyboard) {
	r := c.reply(s.ID, chatID)

	if s.IsLoading {
		if r.messageID != 0 && c.now().Sub(r.shownAt) < c.editInterval {
			return
		}
		c.show(ctx, r, loadingText(s.Text), false, nil)
		return
	}

	defer c.forget(s.ID)

	text := s.Text
	if strings.TrimSpace(text) == "" {
		text = "…"
	}

	chunks := render.Split(text, render.MaxMessageLength-htmlSlack)
	for i, chunk := range chunks {
		html := render.ToHTML(chunk)
		if html == "" {
			html = chunk
		}

		var kb *domain.Keyboard
		if i == len(chunks)-1 {
			kb = keyboard
		}

		if i == 0 {
			c.show(ctx, r, html, true, kb)
			continue
		}
		if _, err := c.sendText(chatID, html, true, inlineKeyboard(kb)); err != nil {
			slog.ErrorContext(ctx, "Sending reply part failed", "id", s.ID, "part", i, logger.Err(err))
			return
		}
	}
}

func (c *client) show(ctx context.Context, r *reply, text string, html bool, kb *domain.Keyboard) {
	markup := inlineKeyboard(kb)

	if r.messageID == 0 {
		msg, err := c.sendText(r.chatID, text, html, markup)
		if err != nil {
			slog.ErrorContext(ctx, "Sending reply failed", "chatID", r.chatID, logger.Err(err))
			return
		}
		r.messageID = msg.MessageID
		r.shownAt = c.now()
		return
	}

	if err := c.editText(r.chatID, r.messageID, text, html, markup); err != nil {
		slog.ErrorContext(ctx, "Editing reply failed", "chatID", r.chatID, "messageID", r.messageID, logger.Err(err))
		return
	}
	r.shownAt = c.now()
}

// loadingText fits a partial reply into one message and marks it unfinished.
func loadingText(text string) string {
	limit := render.MaxMessageLength - utf8.RuneCountInString(loadingCursor)
	if utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	return text + loadingCursor
}
