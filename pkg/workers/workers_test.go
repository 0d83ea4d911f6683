package workers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

type funcWorker struct {
	name string
	run  func(ctx context.Context) error
}

func (f funcWorker) Name() string                    { return f.name }
func (f funcWorker) Start(ctx context.Context) error { return f.run(ctx) }

func TestGroupStopsOnFailure(t *testing.T) {
	waiting := funcWorker{name: "waiting", run: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}
	failing := funcWorker{name: "failing", run: func(context.Context) error {
		return errors.New("boom")
	}}

	err := Group{waiting, failing}.Start(context.Background())

	if err == nil || !strings.Contains(err.Error(), "failing: boom") {
		t.Errorf("expected failing worker error, got %v", err)
	}
}

func TestGroupStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Group{funcWorker{name: "w", run: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}}.Start(ctx)

	if err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

type fakeClient struct {
	updates chan tgbotapi.Update

	mu        sync.Mutex
	responses []*domain.Response
	acked     []string
	typing    []int64
}

func (f *fakeClient) GetUpdates() tgbotapi.UpdatesChannel { return f.updates }
func (f *fakeClient) StopUpdates()                         {}

func (f *fakeClient) SendResponse(_ context.Context, r *domain.Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, r)
}

func (f *fakeClient) AcknowledgeCallback(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
}

func (f *fakeClient) StartTyping(_ context.Context, chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, chatID)
}

type allowList map[int64]bool

func (a allowList) IsAuthorized(userID int64) bool { return a[userID] }

type recordingHandler struct {
	mu      sync.Mutex
	userIDs []int64
}

func (r *recordingHandler) HandleUpdate(ctx context.Context, _ *tgbotapi.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, _ := logger.UserIDFromContext(ctx)
	r.userIDs = append(r.userIDs, userID)
}

func TestListenerProcessesUpdates(t *testing.T) {
	client := &fakeClient{updates: make(chan tgbotapi.Update, 3)}
	handler := &recordingHandler{}
	listener := NewTelegramUpdateListener(client, allowList{7: true}, handler, 2)

	client.updates <- tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 100}, From: &tgbotapi.User{ID: 7}, Text: "hi",
	}}
	client.updates <- tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb", From: &tgbotapi.User{ID: 7}, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}}, Data: "modules",
	}}
	client.updates <- tgbotapi.Update{UpdateID: 3, Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 200}, From: &tgbotapi.User{ID: 8}, Text: "hi",
	}}
	close(client.updates)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := listener.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if len(handler.userIDs) != 2 || handler.userIDs[0] != 7 || handler.userIDs[1] != 7 {
		t.Errorf("expected two authorized updates from user 7, got %v", handler.userIDs)
	}
	if len(client.acked) != 1 || client.acked[0] != "cb" {
		t.Errorf("callback not acknowledged: %v", client.acked)
	}
	if len(client.responses) != 1 || client.responses[0].ChatID != 200 || client.responses[0].Text != unauthorizedText {
		t.Errorf("expected rejection for user 8, got %+v", client.responses)
	}
	if len(client.typing) != 2 {
		t.Errorf("expected typing for authorized updates only, got %v", client.typing)
	}
}
