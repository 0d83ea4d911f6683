package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/repository"
)

type chatFixture struct {
	service   *chatService
	generator *fakeChatGenerator
	responder *fakeResponder
	chatRepo  ChatRepository
	quizRepo  QuizRepository
	busy      *busyTracker
}

func newChatFixture(fragments ...string) chatFixture {
	f := chatFixture{
		generator: &fakeChatGenerator{fragments: fragments},
		responder: &fakeResponder{},
		chatRepo:  repository.NewChatRepository(time.Hour),
		quizRepo:  repository.NewQuizRepository(),
		busy:      NewBusyTracker(),
	}
	f.service = NewChatService(f.chatRepo, f.generator, fakeDetector{lang: "en"}, newSessions(), f.responder, f.busy, f.quizRepo)
	return f
}

func TestAskStreamsReplyAndKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture("Hel", "lo, ", "world")

	f.service.Ask(ctx, 1, 10, "What is an FIR?", "")

	if len(f.responder.snapshots) != 4 {
		t.Fatalf("expected 3 loading and 1 terminal snapshot, got %d", len(f.responder.snapshots))
	}
	for i, want := range []string{"Hel", "Hello, ", "Hello, world"} {
		s := f.responder.snapshots[i].snapshot
		if !s.IsLoading || s.Text != want {
			t.Errorf("snapshot %d: got %+v, want loading %q", i, s, want)
		}
	}

	final, ok := f.responder.terminal()
	if !ok {
		t.Fatal("no terminal snapshot")
	}
	if final.snapshot.Text != "Hello, world" {
		t.Errorf("unexpected final text %q", final.snapshot.Text)
	}
	if final.keyboard == nil || final.keyboard.Buttons[0].Data != domain.SpeakCallbackPrefix+final.snapshot.ID {
		t.Errorf("expected speak button for reply %s, got %+v", final.snapshot.ID, final.keyboard)
	}

	chat, ok := f.chatRepo.GetByID(1)
	if !ok || len(chat.Messages) != 2 {
		t.Fatalf("expected user and bot messages, got %+v", chat.Messages)
	}
	if chat.Messages[0].Sender != domain.SenderUser || chat.Messages[1].Sender != domain.SenderBot {
		t.Errorf("unexpected senders %q, %q", chat.Messages[0].Sender, chat.Messages[1].Sender)
	}

	f.service.Ask(ctx, 1, 10, "And bail?", "")
	if got := len(f.generator.calls[1].history); got != 2 {
		t.Errorf("expected 2 history messages on second question, got %d", got)
	}
	if f.busy.isBusy(1) {
		t.Error("chat left busy after Ask")
	}
}

func TestAskTranslatesOnlyFinalText(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture("Namaste")
	sessions := newSessions()
	f.service.sessions = sessions
	if err := sessions.Get(ctx, 10).SetLanguage(ctx, "hi"); err != nil {
		t.Fatal(err)
	}

	f.service.Ask(ctx, 1, 10, "Hello", "")

	if got := f.responder.snapshots[0].snapshot.Text; got != "Namaste" {
		t.Errorf("loading snapshot should be untranslated, got %q", got)
	}
	final, _ := f.responder.terminal()
	if final.snapshot.Text != "[hi] Namaste" {
		t.Errorf("unexpected final text %q", final.snapshot.Text)
	}
}

func TestCancelledEmptyReplyIsTranslated(t *testing.T) {
	f := newChatFixture("never read")
	sessions := newSessions()
	f.service.sessions = sessions
	if err := sessions.Get(context.Background(), 10).SetLanguage(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.service.Ask(ctx, 1, 10, "Hello", "en")

	final, ok := f.responder.terminal()
	if !ok {
		t.Fatal("no terminal snapshot")
	}
	if want := "[hi] " + generationErrorText; final.snapshot.Text != want {
		t.Errorf("got %q, want %q", final.snapshot.Text, want)
	}
}

func TestAskFailures(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		err       error
		wantText  string
		wantSaved int
	}{
		{name: "open fails", err: errBoom, wantText: generationErrorText, wantSaved: 1},
		{name: "empty reply", fragments: nil, wantText: emptyReplyText, wantSaved: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(tt.fragments...)
			f.generator.err = tt.err

			f.service.Ask(context.Background(), 1, 10, "Hi", "en")

			final, ok := f.responder.terminal()
			if !ok {
				t.Fatal("no terminal snapshot")
			}
			if final.snapshot.Text != tt.wantText {
				t.Errorf("got %q, want %q", final.snapshot.Text, tt.wantText)
			}
			if tt.err != nil && final.keyboard != nil {
				t.Error("failed reply must not offer speech")
			}
			chat, _ := f.chatRepo.GetByID(1)
			if len(chat.Messages) != tt.wantSaved {
				t.Errorf("expected %d saved messages, got %d", tt.wantSaved, len(chat.Messages))
			}
		})
	}
}

func TestAskRejectsBusyChat(t *testing.T) {
	f := newChatFixture("ignored")
	f.busy.acquire(1)

	f.service.Ask(context.Background(), 1, 10, "Hi", "")

	if len(f.generator.calls) != 0 {
		t.Error("generator called for busy chat")
	}
	if got := f.responder.texts(); len(got) != 1 || got[0] != busyText {
		t.Errorf("expected busy notice, got %v", got)
	}
	if !f.busy.isBusy(1) {
		t.Error("busy flag of the running request was cleared")
	}
}

func TestAskRemembersInputLanguage(t *testing.T) {
	f := newChatFixture("ok")
	f.service.detector = fakeDetector{lang: ""}

	f.service.Ask(context.Background(), 1, 10, "Hi", "ta")
	f.service.Ask(context.Background(), 1, 10, "???", "")

	if got := f.service.InputLanguage(1); got != "ta" {
		t.Errorf("expected undetectable text to keep ta, got %q", got)
	}
}

func TestGreetingIsNotSentAsHistory(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture("Reply")

	f.service.SendGreeting(ctx, 1, 10)
	f.service.SendGreeting(ctx, 1, 10)
	f.service.Ask(ctx, 1, 10, "Hi", "en")

	chat, _ := f.chatRepo.GetByID(1)
	greetings := 0
	for _, m := range chat.Messages {
		if m.ID == domain.GreetingMessageID {
			greetings++
		}
	}
	if greetings != 1 {
		t.Errorf("expected one greeting in the chat, got %d", greetings)
	}
	if len(f.generator.calls[0].history) != 0 {
		t.Errorf("greeting leaked into history: %+v", f.generator.calls[0].history)
	}
	if !strings.HasPrefix(f.responder.texts()[0], "Namaste!") {
		t.Errorf("unexpected greeting %q", f.responder.texts()[0])
	}
}

func TestLogoutClearsChatState(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture("Reply")
	f.service.Ask(ctx, 1, 10, "Hi", "en")
	f.quizRepo.Save(1, domain.QuizAttempt{ModuleID: "m", Total: 2})

	f.service.Logout(ctx, 1, 10)

	if _, ok := f.chatRepo.GetByID(1); ok {
		t.Error("chat history survived logout")
	}
	if _, ok := f.quizRepo.Get(1); ok {
		t.Error("quiz attempt survived logout")
	}
	if f.service.InputLanguage(1) != "" {
		t.Error("input language survived logout")
	}
	if f.responder.last().Text != loggedOutText {
		t.Errorf("unexpected reply %q", f.responder.last().Text)
	}
}

func TestClearDuringReplyIsNotUndone(t *testing.T) {
	tests := []struct {
		name  string
		clear func(f chatFixture)
	}{
		{name: "logout", clear: func(f chatFixture) { f.service.Logout(context.Background(), 1, 10) }},
		{name: "new chat", clear: func(f chatFixture) { f.service.ClearChatHistory(context.Background(), 1, 10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newChatFixture("Earlier answer")
			f.service.Ask(ctx, 1, 10, "private old question", "en")

			f.generator.fragments = []string{"late reply"}
			f.generator.during = func() { tt.clear(f) }
			f.service.Ask(ctx, 1, 10, "secret question", "en")

			if chat, ok := f.chatRepo.GetByID(1); ok {
				t.Errorf("history restored after clear: %+v", chat.Messages)
			}

			f.generator.during = nil
			f.service.Ask(ctx, 1, 10, "fresh start", "en")
			if got := f.generator.calls[2].history; len(got) != 0 {
				t.Errorf("expected empty history after clear, got %+v", got)
			}
		})
	}
}
