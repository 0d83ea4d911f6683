// Package session holds the per-user display language and the translation
// entry point bound to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
	"github.com/dskvich/nyay-sahayak-bot/pkg/storage"
)

type translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) string
}

func languageKey(userID int64) string {
	return "language:" + strconv.FormatInt(userID, 10)
}

// Session is the state one user carries between updates.
type Session struct {
	userID     int64
	store      storage.Store
	translator translator

	mu       sync.RWMutex
	language string
}

func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage persists code as the display language. The shared translation
// cache is left untouched so switching back costs no remote calls.
func (s *Session) SetLanguage(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		code = domain.DefaultLanguageCode
	}
	if err := s.store.Set(ctx, languageKey(s.userID), code); err != nil {
		return fmt.Errorf("saving language: %w", err)
	}

	s.mu.Lock()
	s.language = code
	s.mu.Unlock()
	return nil
}

// Translate renders English text in the display language.
func (s *Session) Translate(ctx context.Context, text string) string {
	return s.translator.Translate(ctx, text, s.Language(), domain.DefaultLanguageCode)
}

// TranslateTo translates text between explicit languages. Empty target and
// source default to the display language and English.
func (s *Session) TranslateTo(ctx context.Context, text, targetLang, sourceLang string) string {
	if targetLang == "" {
		targetLang = s.Language()
	}
	if sourceLang == "" {
		sourceLang = domain.DefaultLanguageCode
	}
	return s.translator.Translate(ctx, text, targetLang, sourceLang)
}

// Manager creates sessions lazily and keeps them until End.
type Manager struct {
	store      storage.Store
	translator translator

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager(store storage.Store, translator translator) *Manager {
	return &Manager{
		store:      store,
		translator: translator,
		sessions:   make(map[int64]*Session),
	}
}

// Get returns the user's session, loading the stored language on first use.
// A storage failure falls back to English.
func (m *Manager) Get(ctx context.Context, userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	language := domain.DefaultLanguageCode
	stored, err := m.store.Get(ctx, languageKey(userID))
	switch {
	case err == nil && strings.TrimSpace(stored) != "":
		language = stored
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		slog.WarnContext(ctx, "Loading language failed, using default", logger.Err(err))
	}

	s := &Session{
		userID:     userID,
		store:      m.store,
		translator: m.translator,
		language:   language,
	}
	m.sessions[userID] = s
	return s
}

// End forgets the in-memory session. Stored preferences survive.
func (m *Manager) End(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}
