package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
	"github.com/dskvich/nyay-sahayak-bot/pkg/render"
)

func inlineKeyboard(k *domain.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if k == nil || len(k.Buttons) == 0 {
		return nil
	}

	perRow := max(k.ButtonsPerRow, 1)
	rows := lo.Map(lo.Chunk(k.Buttons, perRow), func(chunk []domain.Button, _ int) []tgbotapi.InlineKeyboardButton {
		return lo.Map(chunk, func(b domain.Button, _ int) tgbotapi.InlineKeyboardButton {
			return tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data)
		})
	})

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// SendResponse delivers resp, splitting long texts over several messages.
// The keyboard is attached to the last one.
func (c *client) SendResponse(ctx context.Context, resp *domain.Response) {
	if resp.Audio != nil {
		audio := tgbotapi.NewAudio(resp.ChatID, tgbotapi.FileBytes{Name: resp.Audio.Name, Bytes: resp.Audio.Data})
		if _, err := c.bot.Send(audio); err != nil {
			slog.ErrorContext(ctx, "Sending audio failed", logger.Err(err))
		}
		return
	}

	text, html := resp.Text, resp.HTML
	switch {
	case resp.Err != nil:
		text, html = "❌ "+resp.Err.Error(), false
	case text == "" && resp.Keyboard != nil:
		text, html = resp.Keyboard.Title, false
	}
	if text == "" {
		slog.WarnContext(ctx, "Skipping empty response", "chatID", resp.ChatID)
		return
	}

	chunks := render.Split(text, render.MaxMessageLength)
	for i, chunk := range chunks {
		var markup *tgbotapi.InlineKeyboardMarkup
		if i == len(chunks)-1 {
			markup = inlineKeyboard(resp.Keyboard)
		}
		if _, err := c.sendText(resp.ChatID, chunk, html, markup); err != nil {
			slog.ErrorContext(ctx, "Sending message failed", "chatID", resp.ChatID, logger.Err(err))
			return
		}
	}
}

// sendText sends one message. HTML that Telegram refuses is resent as plain text.
func (c *client) sendText(chatID int64, text string, html bool, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if html {
		msg.ParseMode = tgbotapi.ModeHTML
	}

	sent, err := c.bot.Send(msg)
	if err != nil && html {
		msg.Text = render.PlainText(text)
		msg.ParseMode = ""
		return c.bot.Send(msg)
	}
	return sent, err
}

func (c *client) editText(chatID int64, messageID int, text string, html bool, markup *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = markup
	if html {
		edit.ParseMode = tgbotapi.ModeHTML
	}

	_, err := c.bot.Request(edit)
	if err != nil && html && !isNotModified(err) {
		edit.Text = render.PlainText(text)
		edit.ParseMode = ""
		_, err = c.bot.Request(edit)
	}
	if isNotModified(err) {
		return nil
	}
	return err
}
