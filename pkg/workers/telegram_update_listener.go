package workers

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

const unauthorizedText = "Sorry, you are not allowed to use this bot."

type Handler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update)
}

type Authenticator interface {
	IsAuthorized(userID int64) bool
}

type TelegramClient interface {
	GetUpdates() tgbotapi.UpdatesChannel
	StopUpdates()
	SendResponse(ctx context.Context, response *domain.Response)
	AcknowledgeCallback(ctx context.Context, callbackQueryID string)
	StartTyping(ctx context.Context, chatID int64)
}

type telegramUpdateListener struct {
	client        TelegramClient
	authenticator Authenticator
	handler       Handler
	pool          chan struct{}
	wg            sync.WaitGroup
}

// NewTelegramUpdateListener handles every update on its own goroutine, at most
// poolSize at a time.
func NewTelegramUpdateListener(
	client TelegramClient,
	authenticator Authenticator,
	handler Handler,
	poolSize int,
) *telegramUpdateListener {
	return &telegramUpdateListener{
		client:        client,
		authenticator: authenticator,
		handler:       handler,
		pool:          make(chan struct{}, max(poolSize, 1)),
	}
}

func (t *telegramUpdateListener) Name() string { return "telegram_listener_worker" }

func (t *telegramUpdateListener) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", t.Name())
	defer slog.Info("Worker stopped", "name", t.Name())

	updates := t.client.GetUpdates()

	for {
		select {
		case <-ctx.Done():
			t.client.StopUpdates()
			t.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.wg.Wait()
				return nil
			}
			select {
			case t.pool <- struct{}{}:
			case <-ctx.Done():
				continue
			}
			t.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer func() {
					<-t.pool
					t.wg.Done()
				}()
				t.processUpdate(ctx, &update)
			}(update)
		}
	}
}

func (t *telegramUpdateListener) processUpdate(ctx context.Context, update *tgbotapi.Update) {
	ctx = logger.ContextWithRequestID(ctx, uuid.NewString())

	var chatID, userID int64
	switch {
	case update.Message != nil:
		chatID, userID = update.Message.Chat.ID, update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID, userID = update.CallbackQuery.Message.Chat.ID, update.CallbackQuery.From.ID
		defer t.client.AcknowledgeCallback(ctx, update.CallbackQuery.ID)
	default:
		slog.DebugContext(ctx, "Skipping unsupported update", "updateID", update.UpdateID)
		return
	}

	ctx = logger.ContextWithUserID(ctx, userID)
	slog.InfoContext(ctx, "Processing update", "updateID", update.UpdateID, "chatID", chatID)

	if !t.authenticator.IsAuthorized(userID) {
		slog.WarnContext(ctx, "Unauthorized access attempt")
		t.client.SendResponse(ctx, &domain.Response{ChatID: chatID, Text: unauthorizedText})
		return
	}

	t.client.StartTyping(ctx, chatID)

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Handler panicked", "panic", r)
		}
	}()
	t.handler.HandleUpdate(ctx, update)
}
