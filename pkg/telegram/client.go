package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

// maxDownloadBytes is the largest file the Bot API lets bots download.
const maxDownloadBytes = 20 << 20

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

type client struct {
	bot          botAPI
	token        string
	httpClient   *http.Client
	updatesCh    tgbotapi.UpdatesChannel
	stopUpdates  func()
	editInterval time.Duration
	now          func() time.Time

	mu      sync.Mutex
	replies map[string]*reply
}

func NewClient(token string, editInterval time.Duration) (*client, error) {
	httpClient := cleanhttp.DefaultPooledClient()

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	slog.Info("Authorized on telegram", "account", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	c := newClient(bot, token, httpClient, editInterval)
	c.updatesCh = bot.GetUpdatesChan(u)
	c.stopUpdates = bot.StopReceivingUpdates
	return c, nil
}

func newClient(bot botAPI, token string, httpClient *http.Client, editInterval time.Duration) *client {
	return &client{
		bot:          bot,
		token:        token,
		httpClient:   httpClient,
		stopUpdates:  func() {},
		editInterval: editInterval,
		now:          time.Now,
		replies:      make(map[string]*reply),
	}
}

func (c *client) GetUpdates() tgbotapi.UpdatesChannel {
	return c.updatesCh
}

func (c *client) StopUpdates() {
	c.stopUpdates()
}

func (c *client) AcknowledgeCallback(ctx context.Context, callbackQueryID string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackQueryID, "")); err != nil {
		slog.ErrorContext(ctx, "Acknowledging callback failed", logger.Err(err))
	}
}

func (c *client) StartTyping(ctx context.Context, chatID int64) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.WarnContext(ctx, "Sending typing action failed", logger.Err(err))
	}
}

// DownloadFile fetches a file the user sent to the bot.
func (c *client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.token), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "Closing body failed", logger.Err(closeErr))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("downloading file: larger than %d bytes", maxDownloadBytes)
	}
	return data, nil
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
