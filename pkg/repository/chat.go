package repository

import (
	"slices"
	"sync"
	"time"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
)

type ttlEntry[T any] struct {
	value      T
	lastUpdate time.Time
}

// ttlMap drops entries that were not updated within ttl. A zero ttl keeps them forever.
// Every clear moves the id to a new generation.
type ttlMap[T any] struct {
	mu      sync.RWMutex
	entries map[int64]ttlEntry[T]
	gens    map[int64]uint64
	ttl     time.Duration
	now     func() time.Time
}

func newTTLMap[T any](ttl time.Duration) *ttlMap[T] {
	return &ttlMap[T]{
		entries: make(map[int64]ttlEntry[T]),
		gens:    make(map[int64]uint64),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *ttlMap[T]) expired(e ttlEntry[T]) bool {
	return m.ttl > 0 && m.now().Sub(e.lastUpdate) > m.ttl
}

func (m *ttlMap[T]) save(id int64, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = ttlEntry[T]{value: v, lastUpdate: m.now()}

	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
		}
	}
}

func (m *ttlMap[T]) get(id int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok || m.expired(e) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (m *ttlMap[T]) clear(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	m.gens[id]++
}

func (m *ttlMap[T]) generation(id int64) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gens[id]
}

// update stores fn applied to the current value of id. Nothing is stored when
// id was cleared after generation was read.
func (m *ttlMap[T]) update(id int64, generation uint64, fn func(v T, ok bool) T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[id] != generation {
		return false
	}

	var current T
	e, ok := m.entries[id]
	if ok && !m.expired(e) {
		current = e.value
	} else {
		ok = false
	}
	m.entries[id] = ttlEntry[T]{value: fn(current, ok), lastUpdate: m.now()}
	return true
}

type chatRepository struct {
	chats *ttlMap[domain.Chat]
}

// NewChatRepository keeps conversations in memory until they go idle for ttl.
func NewChatRepository(ttl time.Duration) *chatRepository {
	return &chatRepository{chats: newTTLMap[domain.Chat](ttl)}
}

func (c *chatRepository) Save(chat domain.Chat) {
	c.chats.save(chat.ID, chat)
}

func (c *chatRepository) GetByID(chatID int64) (domain.Chat, bool) {
	return c.chats.get(chatID)
}

func (c *chatRepository) ClearChat(chatID int64) {
	c.chats.clear(chatID)
}

// Generation changes every time the chat is cleared.
func (c *chatRepository) Generation(chatID int64) uint64 {
	return c.chats.generation(chatID)
}

// Append adds msgs to the stored chat. It reports false and keeps nothing
// when the chat was cleared after generation was read.
func (c *chatRepository) Append(chatID int64, generation uint64, msgs ...domain.ChatMessage) bool {
	return c.chats.update(chatID, generation, func(chat domain.Chat, ok bool) domain.Chat {
		if !ok {
			chat = domain.Chat{ID: chatID}
		}
		chat.Messages = append(slices.Clone(chat.Messages), msgs...)
		return chat
	})
}

type documentRepository struct {
	docs *ttlMap[domain.Document]
}

// NewDocumentRepository keeps the document each chat is analysing.
func NewDocumentRepository(ttl time.Duration) *documentRepository {
	return &documentRepository{docs: newTTLMap[domain.Document](ttl)}
}

func (d *documentRepository) Save(doc domain.Document) {
	d.docs.save(doc.ChatID, doc)
}

func (d *documentRepository) GetByChatID(chatID int64) (domain.Document, bool) {
	return d.docs.get(chatID)
}

func (d *documentRepository) Clear(chatID int64) {
	d.docs.clear(chatID)
}

func (d *documentRepository) Generation(chatID int64) uint64 {
	return d.docs.generation(chatID)
}

// SaveIfCurrent stores doc unless the chat's document was cleared after
// generation was read.
func (d *documentRepository) SaveIfCurrent(doc domain.Document, generation uint64) bool {
	return d.docs.update(doc.ChatID, generation, func(domain.Document, bool) domain.Document {
		return doc
	})
}
