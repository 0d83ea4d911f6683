package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/services"
)

type ChatService interface {
	SendGreeting(ctx context.Context, chatID, userID int64)
	ClearChatHistory(ctx context.Context, chatID, userID int64)
	Logout(ctx context.Context, chatID, userID int64)
	Ask(ctx context.Context, chatID, userID int64, text, inputLang string)
}

type DocumentService interface {
	SendPrompt(ctx context.Context, chatID, userID int64)
	HasDocument(chatID int64) bool
	Upload(ctx context.Context, chatID, userID int64, fileID string, file domain.UploadedFile, caption string)
	Ask(ctx context.Context, chatID, userID int64, question string)
	Done(ctx context.Context, chatID, userID int64)
}

type VoiceService interface {
	HandleVoice(ctx context.Context, chatID, userID int64, fileID, mimeType string)
}

type SpeechService interface {
	Speak(ctx context.Context, chatID, userID int64, messageID string)
}

type LearnService interface {
	ShowModules(ctx context.Context, chatID, userID int64)
	ShowModule(ctx context.Context, chatID, userID int64, moduleID string)
	ShowLesson(ctx context.Context, chatID, userID int64, moduleID, lessonID string)
	SetLessonRead(ctx context.Context, chatID, userID int64, moduleID, lessonID string, read bool)
	StartQuiz(ctx context.Context, chatID, userID int64, moduleID string)
	Answer(ctx context.Context, chatID, userID int64, moduleID string, index int, optionID string)
	ShowProgress(ctx context.Context, chatID, userID int64)
	ShowFlashcard(ctx context.Context, chatID, userID int64, index int, side string)
}

type LanguageService interface {
	ShowLanguages(ctx context.Context, chatID, userID int64)
	SetLanguage(ctx context.Context, chatID, userID int64, code string)
}

type AdminService interface {
	ShowBalance(ctx context.Context, chatID, userID int64)
}

type handler struct {
	chatService     ChatService
	documentService DocumentService
	voiceService    VoiceService
	speechService   SpeechService
	learnService    LearnService
	languageService LanguageService
	adminService    AdminService
}

func NewHandler(
	chatService ChatService,
	documentService DocumentService,
	voiceService VoiceService,
	speechService SpeechService,
	learnService LearnService,
	languageService LanguageService,
	adminService AdminService,
) *handler {
	return &handler{
		chatService:     chatService,
		documentService: documentService,
		voiceService:    voiceService,
		speechService:   speechService,
		learnService:    learnService,
		languageService: languageService,
		adminService:    adminService,
	}
}

func (h *handler) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cb := update.CallbackQuery
		h.handleCallback(ctx, cb.Message.Chat.ID, cb.From.ID, cb.Data)

	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *handler) handleCallback(ctx context.Context, chatID, userID int64, data string) {
	switch {
	case data == domain.ShowModulesCallback:
		h.learnService.ShowModules(ctx, chatID, userID)

	case data == domain.ShowProgressCallback:
		h.learnService.ShowProgress(ctx, chatID, userID)

	case strings.HasPrefix(data, domain.SetLanguageCallbackPrefix):
		h.languageService.SetLanguage(ctx, chatID, userID, strings.TrimPrefix(data, domain.SetLanguageCallbackPrefix))

	case strings.HasPrefix(data, domain.ShowModuleCallbackPrefix):
		h.learnService.ShowModule(ctx, chatID, userID, strings.TrimPrefix(data, domain.ShowModuleCallbackPrefix))

	case strings.HasPrefix(data, domain.ShowLessonCallbackPrefix):
		if ref, ok := splitRef(data, domain.ShowLessonCallbackPrefix, 2); ok {
			h.learnService.ShowLesson(ctx, chatID, userID, ref[0], ref[1])
			return
		}
		slog.WarnContext(ctx, "Malformed callback", "data", data)

	case strings.HasPrefix(data, domain.MarkReadCallbackPrefix):
		if ref, ok := splitRef(data, domain.MarkReadCallbackPrefix, 2); ok {
			h.learnService.SetLessonRead(ctx, chatID, userID, ref[0], ref[1], true)
			return
		}
		slog.WarnContext(ctx, "Malformed callback", "data", data)

	case strings.HasPrefix(data, domain.MarkUnreadCallbackPrefix):
		if ref, ok := splitRef(data, domain.MarkUnreadCallbackPrefix, 2); ok {
			h.learnService.SetLessonRead(ctx, chatID, userID, ref[0], ref[1], false)
			return
		}
		slog.WarnContext(ctx, "Malformed callback", "data", data)

	case strings.HasPrefix(data, domain.StartQuizCallbackPrefix):
		h.learnService.StartQuiz(ctx, chatID, userID, strings.TrimPrefix(data, domain.StartQuizCallbackPrefix))

	case strings.HasPrefix(data, domain.AnswerQuizCallbackPrefix):
		if a, ok := parseAnswer(data, domain.AnswerQuizCallbackPrefix); ok {
			h.learnService.Answer(ctx, chatID, userID, a.moduleID, a.index, a.optionID)
			return
		}
		slog.WarnContext(ctx, "Malformed callback", "data", data)

	case strings.HasPrefix(data, domain.FlashcardCallbackPrefix):
		if f, ok := parseFlashcard(data, domain.FlashcardCallbackPrefix); ok {
			h.learnService.ShowFlashcard(ctx, chatID, userID, f.index, f.side)
			return
		}
		slog.WarnContext(ctx, "Malformed callback", "data", data)

	case strings.HasPrefix(data, domain.SpeakCallbackPrefix):
		h.speechService.Speak(ctx, chatID, userID, strings.TrimPrefix(data, domain.SpeakCallbackPrefix))

	default:
		slog.WarnContext(ctx, "Unhandled callback", "data", data)
	}
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func (h *handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID, userID := msg.Chat.ID, senderID(msg)

	switch {
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		file := domain.UploadedFile{Name: "photo.jpg", MimeType: "image/jpeg", Size: photo.FileSize}
		h.documentService.Upload(ctx, chatID, userID, photo.FileID, file, msg.Caption)

	case msg.Document != nil:
		file := domain.UploadedFile{Name: msg.Document.FileName, MimeType: msg.Document.MimeType, Size: msg.Document.FileSize}
		h.documentService.Upload(ctx, chatID, userID, msg.Document.FileID, file, msg.Caption)

	case msg.Voice != nil:
		h.voiceService.HandleVoice(ctx, chatID, userID, msg.Voice.FileID, mimeTypeOr(msg.Voice.MimeType, "audio/ogg"))

	case msg.Audio != nil:
		h.voiceService.HandleVoice(ctx, chatID, userID, msg.Audio.FileID, mimeTypeOr(msg.Audio.MimeType, "audio/mpeg"))

	case isCommand(msg.Text):
		h.handleCommand(ctx, chatID, userID, msg.Text)

	case strings.TrimSpace(msg.Text) == "":
		slog.DebugContext(ctx, "Ignoring message without text")

	case h.documentService.HasDocument(chatID):
		h.documentService.Ask(ctx, chatID, userID, msg.Text)

	default:
		h.chatService.Ask(ctx, chatID, userID, msg.Text, "")
	}
}

func mimeTypeOr(mimeType, fallback string) string {
	if mimeType == "" {
		return fallback
	}
	return mimeType
}

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

func (h *handler) handleCommand(ctx context.Context, chatID, userID int64, text string) {
	cmd := strings.ToLower(strings.Fields(text)[0])
	cmd = strings.Split(cmd, "@")[0]

	switch cmd {
	case "/start", "/help":
		h.chatService.SendGreeting(ctx, chatID, userID)
	case "/new":
		h.chatService.ClearChatHistory(ctx, chatID, userID)
	case "/language":
		h.languageService.ShowLanguages(ctx, chatID, userID)
	case "/learn":
		h.learnService.ShowModules(ctx, chatID, userID)
	case "/progress":
		h.learnService.ShowProgress(ctx, chatID, userID)
	case "/flashcards":
		h.learnService.ShowFlashcard(ctx, chatID, userID, 0, services.FlashcardMyth)
	case "/doc":
		h.documentService.SendPrompt(ctx, chatID, userID)
	case "/done":
		h.documentService.Done(ctx, chatID, userID)
	case "/logout":
		h.chatService.Logout(ctx, chatID, userID)
	case "/balance":
		h.adminService.ShowBalance(ctx, chatID, userID)
	default:
		slog.WarnContext(ctx, "Unhandled command", "cmd", cmd)
		h.chatService.SendGreeting(ctx, chatID, userID)
	}
}
