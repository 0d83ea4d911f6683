package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/session"
	"github.com/dskvich/nyay-sahayak-bot/pkg/storage"
	"github.com/dskvich/nyay-sahayak-bot/pkg/stream"
)

// tagTranslator marks translated text with the target language.
type tagTranslator struct{}

func (tagTranslator) Translate(_ context.Context, text, target, source string) string {
	if target == source || text == "" {
		return text
	}
	return "[" + target + "] " + text
}

func newSessions() *session.Manager {
	return session.NewManager(storage.NewMemory(), tagTranslator{})
}

type published struct {
	chatID   int64
	snapshot domain.Snapshot
	keyboard *domain.Keyboard
}

type fakeResponder struct {
	mu        sync.Mutex
	responses []*domain.Response
	snapshots []published
}

func (f *fakeResponder) SendResponse(_ context.Context, resp *domain.Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
}

func (f *fakeResponder) PublishSnapshot(_ context.Context, chatID int64, s domain.Snapshot, keyboard *domain.Keyboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, published{chatID: chatID, snapshot: s, keyboard: keyboard})
}

func (f *fakeResponder) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.responses))
	for _, r := range f.responses {
		if r.Keyboard != nil && r.Text == "" {
			out = append(out, r.Keyboard.Title)
			continue
		}
		out = append(out, r.Text)
	}
	return out
}

func (f *fakeResponder) last() *domain.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeResponder) terminal() (published, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.snapshots {
		if p.snapshot.Terminal() {
			return p, true
		}
	}
	return published{}, false
}

type chatCall struct {
	history []domain.ChatMessage
	prompt  string
}

// The during hooks run while a reply is being generated.
type fakeChatGenerator struct {
	fragments []string
	err       error
	calls     []chatCall
	during    func()
}

func (f *fakeChatGenerator) StreamChat(_ context.Context, history []domain.ChatMessage, prompt string) (stream.FragmentStream, error) {
	f.calls = append(f.calls, chatCall{history: history, prompt: prompt})
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	return stream.FromStrings(f.fragments...), nil
}

type documentCall struct {
	file     domain.UploadedFile
	history  []domain.DocumentMessage
	question string
}

type fakeDocumentGenerator struct {
	fragments []string
	calls     []documentCall
	during    func()
}

func (f *fakeDocumentGenerator) StreamDocument(_ context.Context, file domain.UploadedFile, history []domain.DocumentMessage, question string) (stream.FragmentStream, error) {
	f.calls = append(f.calls, documentCall{file: file, history: history, question: question})
	if f.during != nil {
		f.during()
	}
	return stream.FromStrings(f.fragments...), nil
}

type fakeDetector struct {
	lang string
}

func (f fakeDetector) DetectLanguage(context.Context, string) string {
	return f.lang
}

type fakeDownloader struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeDownloader) DownloadFile(context.Context, string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

var errBoom = errors.New("boom")
