package services

import (
	"fmt"
	"sync"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
)

// busyTracker marks chats with a request in flight. A chat handles one
// generation at a time; a second request is turned away rather than queued.
type busyTracker struct {
	mu    sync.Mutex
	chats map[int64]struct{}
}

func NewBusyTracker() *busyTracker {
	return &busyTracker{chats: make(map[int64]struct{})}
}

// acquire marks chatID busy. It fails with domain.ErrBusy when the chat
// already has a request in flight.
func (b *busyTracker) acquire(chatID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, busy := b.chats[chatID]; busy {
		return fmt.Errorf("chat %d: %w", chatID, domain.ErrBusy)
	}
	b.chats[chatID] = struct{}{}
	return nil
}

func (b *busyTracker) release(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.chats, chatID)
}
