package services

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

type LanguageLister interface {
	SupportedLanguages(ctx context.Context) []domain.Language
}

type languageService struct {
	lister    LanguageLister
	sessions  SessionManager
	responder Responder
}

func NewLanguageService(lister LanguageLister, sessions SessionManager, responder Responder) *languageService {
	return &languageService{
		lister:    lister,
		sessions:  sessions,
		responder: responder,
	}
}

func (l *languageService) ShowLanguages(ctx context.Context, chatID, userID int64) {
	sess := l.sessions.Get(ctx, userID)
	current := sess.Language()

	buttons := lo.Map(l.lister.SupportedLanguages(ctx), func(lang domain.Language, _ int) domain.Button {
		label := lo.Ternary(lang.Code == current, "✓ "+lang.Name, lang.Name)
		return domain.Button{Label: label, Data: domain.SetLanguageCallbackPrefix + lang.Code}
	})

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title:         sess.Translate(ctx, chooseLanguageText),
			Buttons:       buttons,
			ButtonsPerRow: 2,
		},
	})
}

// SetLanguage switches the user's display language. Cached translations are kept.
func (l *languageService) SetLanguage(ctx context.Context, chatID, userID int64, code string) {
	sess := l.sessions.Get(ctx, userID)

	lang, ok := lo.Find(l.lister.SupportedLanguages(ctx), func(lang domain.Language) bool { return lang.Code == code })
	if !ok {
		slog.WarnContext(ctx, "Unsupported language requested", "code", code)
		sendText(ctx, l.responder, sess, chatID, messageExpiredText)
		return
	}

	if err := sess.SetLanguage(ctx, lang.Code); err != nil {
		slog.ErrorContext(ctx, "Saving language failed", "code", lang.Code, logger.Err(err))
		l.responder.SendResponse(ctx, &domain.Response{ChatID: chatID, Err: err})
		return
	}
	slog.InfoContext(ctx, "Display language changed", "code", lang.Code)

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Text:   sess.Translate(ctx, languageSetText) + " " + lang.Name,
	})
}
