// Package translation memoises remote translations for the lifetime of the process.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

// fetchTimeout bounds one remote translation, whoever is waiting for it.
const fetchTimeout = 30 * time.Second

// Translator is the remote translation service.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

type sourceKey struct {
	lang string
	text string
}

// Cache maps (source language, text) to translations per target language.
// Failed or no-op translations are never stored, so they are retried on the
// next request. Safe for concurrent use.
type Cache struct {
	translator Translator
	log        *slog.Logger

	mu      sync.RWMutex
	entries map[sourceKey]map[string]string
	bounded *lru.Cache[sourceKey, map[string]string]

	inflight singleflight.Group

	hits, misses, calls, failures atomic.Int64
}

type Option func(*Cache) error

// WithCapacity keeps at most n source texts, evicting the least recently used.
// n <= 0 leaves the cache unbounded.
func WithCapacity(n int) Option {
	return func(c *Cache) error {
		if n <= 0 {
			return nil
		}
		l, err := lru.New[sourceKey, map[string]string](n)
		if err != nil {
			return fmt.Errorf("creating lru: %w", err)
		}
		c.bounded = l
		return nil
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) error {
		c.log = log
		return nil
	}
}

func NewCache(translator Translator, opts ...Option) (*Cache, error) {
	c := &Cache{
		translator: translator,
		log:        slog.Default(),
		entries:    map[sourceKey]map[string]string{},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Translate returns text in targetLang. It never fails: when the remote call
// errors or returns nothing useful the input text is returned unchanged.
func (c *Cache) Translate(ctx context.Context, text, targetLang, sourceLang string) string {
	if text == "" || targetLang == sourceLang {
		return text
	}

	key := sourceKey{lang: sourceLang, text: text}
	if translated, ok := c.lookup(key, targetLang); ok {
		c.hits.Add(1)
		return translated
	}
	c.misses.Add(1)

	// The flight outlives any one caller: a cancelled caller gets the source
	// text back while the others still wait for the translation.
	flightKey := sourceLang + "\x00" + targetLang + "\x00" + text
	ch := c.inflight.DoChan(flightKey, func() (any, error) {
		// a concurrent flight may have stored it between lookup and DoChan
		if translated, ok := c.lookup(key, targetLang); ok {
			return translated, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return c.fetch(fetchCtx, key, targetLang), nil
	})

	select {
	case res := <-ch:
		return res.Val.(string)
	case <-ctx.Done():
		return text
	}
}

func (c *Cache) fetch(ctx context.Context, key sourceKey, targetLang string) (result string) {
	c.calls.Add(1)
	defer func() {
		if r := recover(); r != nil {
			c.failures.Add(1)
			c.log.ErrorContext(ctx, "Translator panicked, using source text",
				"source", key.lang, "target", targetLang, "panic", r)
			result = key.text
		}
	}()

	translated, err := c.translator.Translate(ctx, key.text, key.lang, targetLang)
	if err != nil {
		c.failures.Add(1)
		c.log.WarnContext(ctx, "Translation failed, using source text",
			"source", key.lang, "target", targetLang, logger.Err(err))
		return key.text
	}

	if strings.TrimSpace(translated) == "" || translated == key.text {
		return key.text
	}

	c.store(key, targetLang, translated)
	return translated
}

func (c *Cache) lookup(key sourceKey, targetLang string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		targets map[string]string
		ok      bool
	)
	if c.bounded != nil {
		targets, ok = c.bounded.Get(key)
	} else {
		targets, ok = c.entries[key]
	}
	if !ok {
		return "", false
	}
	translated, ok := targets[targetLang]
	return translated, ok
}

func (c *Cache) store(key sourceKey, targetLang, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bounded != nil {
		targets, ok := c.bounded.Peek(key)
		if !ok {
			targets = map[string]string{}
		}
		targets[targetLang] = translated
		c.bounded.Add(key, targets)
		return
	}

	targets, ok := c.entries[key]
	if !ok {
		targets = map[string]string{}
		c.entries[key] = targets
	}
	targets[targetLang] = translated
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries  int
	Hits     int64
	Misses   int64
	Calls    int64
	Failures int64
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	if c.bounded != nil {
		entries = c.bounded.Len()
	}
	c.mu.RUnlock()

	return Stats{
		Entries:  entries,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Calls:    c.calls.Load(),
		Failures: c.failures.Load(),
	}
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("entries", s.Entries),
		slog.Int64("hits", s.Hits),
		slog.Int64("misses", s.Misses),
		slog.Int64("calls", s.Calls),
		slog.Int64("failures", s.Failures),
	)
}
