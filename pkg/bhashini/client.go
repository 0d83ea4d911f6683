// Package bhashini talks to the speech and language backend that fronts the Bhashini APIs.
package bhashini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

const DefaultBaseURL = "http://localhost:5000"

type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
	Details    string `json:"details,omitempty"`
}

type client struct {
	baseURL string
	hc      *http.Client

	mu        sync.Mutex
	languages []domain.Language
}

func NewClient(baseURL string) *client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      cleanhttp.DefaultPooledClient(),
	}
}

func (c *client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg := fmt.Sprintf("bhashini error: %s (status %d)", e.Error, resp.StatusCode)
			if e.Details != "" {
				msg += " - " + e.Details
			}
			return errors.New(msg)
		}
		return fmt.Errorf("bhashini request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// SupportedLanguages lists the languages offered in the language picker,
// always with English first. Any failure yields just English. A successful
// list is kept for the lifetime of the client.
func (c *client) SupportedLanguages(ctx context.Context) []domain.Language {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.languages != nil {
		return c.languages
	}

	var resp struct {
		SupportedLanguages []domain.Language `json:"supported_languages"`
		Error              string            `json:"error"`
	}
	if err := c.do(ctx, http.MethodGet, "/bhashini/supported-languages", nil, &resp); err != nil {
		slog.ErrorContext(ctx, "Fetching supported languages failed", logger.Err(err))
		return []domain.Language{domain.English}
	}
	if resp.Error != "" {
		slog.WarnContext(ctx, "Supported languages returned an error", "error", resp.Error)
		return []domain.Language{domain.English}
	}

	c.languages = normalizeLanguages(resp.SupportedLanguages)
	return c.languages
}

func isEnglish(l domain.Language) bool {
	return l.Code == domain.DefaultLanguageCode || strings.EqualFold(l.Name, "english")
}

func normalizeLanguages(languages []domain.Language) []domain.Language {
	languages = lo.Filter(languages, func(l domain.Language, _ int) bool { return l.Code != "" })

	english, ok := lo.Find(languages, isEnglish)
	if !ok {
		english = domain.English
	}
	rest := lo.Filter(languages, func(l domain.Language, _ int) bool { return l.Code != english.Code })
	return append([]domain.Language{english}, rest...)
}

// DetectLanguage returns the language code of text, or "" when it cannot be determined.
func (c *client) DetectLanguage(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var resp struct {
		LangCode string `json:"langCode"`
		Error    string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/bhashini/detect-language", map[string]string{"text": text}, &resp); err != nil {
		slog.ErrorContext(ctx, "Detecting language failed", logger.Err(err))
		return ""
	}
	if resp.LangCode == "" || strings.EqualFold(resp.LangCode, "unknown") {
		if resp.Error != "" {
			slog.WarnContext(ctx, "Language detection returned an error", "error", resp.Error)
		}
		return ""
	}
	return resp.LangCode
}

// TextToSpeech synthesises text and returns the decoded audio.
func (c *client) TextToSpeech(ctx context.Context, text, language string) ([]byte, error) {
	payload := struct {
		Text      string `json:"text"`
		SourceLan string `json:"sourceLan,omitempty"`
	}{Text: text, SourceLan: language}

	var resp struct {
		AudioContent string `json:"audio_content"`
		Error        string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/bhashini/tts", payload, &resp); err != nil {
		return nil, fmt.Errorf("synthesising speech: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("synthesising speech: %s", resp.Error)
	}
	if resp.AudioContent == "" {
		return nil, fmt.Errorf("synthesising speech: empty audio")
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decoding audio: %w", err)
	}
	return audio, nil
}
