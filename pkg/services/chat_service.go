package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
	"github.com/dskvich/nyay-sahayak-bot/pkg/session"
	"github.com/dskvich/nyay-sahayak-bot/pkg/stream"
)

type ChatRepository interface {
	Save(chat domain.Chat)
	GetByID(chatID int64) (domain.Chat, bool)
	ClearChat(chatID int64)
	Generation(chatID int64) uint64
	Append(chatID int64, generation uint64, msgs ...domain.ChatMessage) bool
}

type ChatGenerator interface {
	StreamChat(ctx context.Context, history []domain.ChatMessage, prompt string) (stream.FragmentStream, error)
}

type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) string
}

// StateCleaner drops per-chat state kept outside the chat history.
type StateCleaner interface {
	Clear(chatID int64)
}

type chatService struct {
	chatRepo  ChatRepository
	generator ChatGenerator
	detector  LanguageDetector
	sessions  SessionManager
	responder Responder
	busy      *busyTracker
	cleaners  []StateCleaner

	mu         sync.Mutex
	inputLangs map[int64]string
}

func NewChatService(
	chatRepo ChatRepository,
	generator ChatGenerator,
	detector LanguageDetector,
	sessions SessionManager,
	responder Responder,
	busy *busyTracker,
	cleaners ...StateCleaner,
) *chatService {
	return &chatService{
		chatRepo:   chatRepo,
		generator:  generator,
		detector:   detector,
		sessions:   sessions,
		responder:  responder,
		busy:       busy,
		cleaners:   cleaners,
		inputLangs: make(map[int64]string),
	}
}

func (c *chatService) SendGreeting(ctx context.Context, chatID, userID int64) {
	sess := c.sessions.Get(ctx, userID)
	text := sess.Translate(ctx, greetingText)

	chat, ok := c.chatRepo.GetByID(chatID)
	if !ok {
		chat = domain.Chat{ID: chatID}
	}
	if !lo.ContainsBy(chat.Messages, func(m domain.ChatMessage) bool { return m.ID == domain.GreetingMessageID }) {
		chat.Messages = append([]domain.ChatMessage{{
			ID:        domain.GreetingMessageID,
			Text:      text,
			Sender:    domain.SenderBot,
			Language:  sess.Language(),
			Timestamp: time.Now(),
		}}, chat.Messages...)
		c.chatRepo.Save(chat)
	}

	c.responder.SendResponse(ctx, &domain.Response{ChatID: chatID, Text: text})
}

func (c *chatService) ClearChatHistory(ctx context.Context, chatID, userID int64) {
	c.chatRepo.ClearChat(chatID)
	sendText(ctx, c.responder, c.sessions.Get(ctx, userID), chatID, chatClearedText)
}

// Logout forgets everything the bot holds for the chat and ends the user's
// session. The stored language and progress survive.
func (c *chatService) Logout(ctx context.Context, chatID, userID int64) {
	sess := c.sessions.Get(ctx, userID)
	text := sess.Translate(ctx, loggedOutText)

	c.chatRepo.ClearChat(chatID)
	for _, cl := range c.cleaners {
		cl.Clear(chatID)
	}
	c.mu.Lock()
	delete(c.inputLangs, chatID)
	c.mu.Unlock()
	c.sessions.End(userID)

	c.responder.SendResponse(ctx, &domain.Response{ChatID: chatID, Text: text})
}

// InputLanguage is the language the chat last wrote or spoke in, or "".
func (c *chatService) InputLanguage(chatID int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputLangs[chatID]
}

func (c *chatService) setInputLanguage(chatID int64, lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputLangs[chatID] = lang
}

// Ask sends text to the legal assistant and streams the answer into the chat.
// An empty inputLang is detected from the text.
func (c *chatService) Ask(ctx context.Context, chatID, userID int64, text, inputLang string) {
	sess := c.sessions.Get(ctx, userID)
	if err := c.busy.acquire(chatID); err != nil {
		slog.InfoContext(ctx, "Rejected request", logger.Err(err))
		sendText(ctx, c.responder, sess, chatID, busyText)
		return
	}
	defer c.busy.release(chatID)

	c.ask(ctx, sess, chatID, text, inputLang)
}

// ask expects the caller to hold the chat's busy flag.
func (c *chatService) ask(ctx context.Context, sess *session.Session, chatID int64, text, inputLang string) {
	if inputLang == "" {
		inputLang = c.detector.DetectLanguage(ctx, text)
	}
	inputLang, _ = lo.Coalesce(inputLang, c.InputLanguage(chatID), domain.DefaultLanguageCode)
	c.setInputLanguage(chatID, inputLang)

	generation := c.chatRepo.Generation(chatID)
	chat, _ := c.chatRepo.GetByID(chatID)
	history := chat.History()

	slog.InfoContext(ctx, "Asking legal assistant",
		"chatID", chatID,
		"inputLang", inputLang,
		"historySize", len(history),
	)

	turn := []domain.ChatMessage{{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    domain.SenderUser,
		Language:  inputLang,
		Timestamp: time.Now(),
	}}

	final := streamReply(ctx, c.responder, sess, chatID, func(ctx context.Context) (stream.FragmentStream, error) {
		return c.generator.StreamChat(ctx, history, text)
	})

	if final.Err == nil {
		turn = append(turn, domain.ChatMessage{
			ID:        final.ID,
			Text:      final.Text,
			Sender:    domain.SenderBot,
			Language:  sess.Language(),
			Timestamp: time.Now(),
		})
	}
	if !c.chatRepo.Append(chatID, generation, turn...) {
		slog.InfoContext(ctx, "Chat was cleared during the reply, dropping the turn", "chatID", chatID)
	}
}
