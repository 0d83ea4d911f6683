package services

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

type SpeechSynthesizer interface {
	TextToSpeech(ctx context.Context, text, language string) ([]byte, error)
}

type speechService struct {
	chatRepo    ChatRepository
	docRepo     DocumentRepository
	synthesizer SpeechSynthesizer
	sessions    SessionManager
	responder   Responder
}

func NewSpeechService(
	chatRepo ChatRepository,
	docRepo DocumentRepository,
	synthesizer SpeechSynthesizer,
	sessions SessionManager,
	responder Responder,
) *speechService {
	return &speechService{
		chatRepo:    chatRepo,
		docRepo:     docRepo,
		synthesizer: synthesizer,
		sessions:    sessions,
		responder:   responder,
	}
}

func (s *speechService) findMessage(chatID int64, messageID string) (domain.ChatMessage, bool) {
	match := func(m domain.ChatMessage) bool { return m.ID == messageID && m.Sender == domain.SenderBot }

	if chat, ok := s.chatRepo.GetByID(chatID); ok {
		if m, found := lo.Find(chat.Messages, match); found {
			return m, true
		}
	}
	if doc, ok := s.docRepo.GetByChatID(chatID); ok {
		if m, found := lo.Find(doc.Messages, func(m domain.DocumentMessage) bool { return match(m.ChatMessage) }); found {
			return m.ChatMessage, true
		}
	}
	return domain.ChatMessage{}, false
}

// Speak reads a bot reply aloud in the language it was written in.
func (s *speechService) Speak(ctx context.Context, chatID, userID int64, messageID string) {
	sess := s.sessions.Get(ctx, userID)

	msg, ok := s.findMessage(chatID, messageID)
	if !ok {
		sendText(ctx, s.responder, sess, chatID, messageExpiredText)
		return
	}

	language, _ := lo.Coalesce(msg.Language, sess.Language())
	audio, err := s.synthesizer.TextToSpeech(ctx, msg.Text, language)
	if err != nil {
		slog.ErrorContext(ctx, "Synthesising speech failed", "messageID", messageID, "language", language, logger.Err(err))
		sendText(ctx, s.responder, sess, chatID, speechErrorText)
		return
	}

	s.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Audio:  &domain.Audio{Name: "reply-" + language + ".wav", Data: audio},
	})
}
