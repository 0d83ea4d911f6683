package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/dskvich/nyay-sahayak-bot/pkg/api/handler"
	"github.com/dskvich/nyay-sahayak-bot/pkg/auth"
	"github.com/dskvich/nyay-sahayak-bot/pkg/bhashini"
	"github.com/dskvich/nyay-sahayak-bot/pkg/converter"
	"github.com/dskvich/nyay-sahayak-bot/pkg/database"
	"github.com/dskvich/nyay-sahayak-bot/pkg/digitalocean"
	"github.com/dskvich/nyay-sahayak-bot/pkg/learn"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
	"github.com/dskvich/nyay-sahayak-bot/pkg/openai"
	"github.com/dskvich/nyay-sahayak-bot/pkg/progress"
	"github.com/dskvich/nyay-sahayak-bot/pkg/repository"
	"github.com/dskvich/nyay-sahayak-bot/pkg/services"
	"github.com/dskvich/nyay-sahayak-bot/pkg/session"
	"github.com/dskvich/nyay-sahayak-bot/pkg/storage"
	"github.com/dskvich/nyay-sahayak-bot/pkg/telegram"
	"github.com/dskvich/nyay-sahayak-bot/pkg/translation"
	"github.com/dskvich/nyay-sahayak-bot/pkg/workers"
)

const (
	storageMemory   = "memory"
	storageSQLite   = "sqlite"
	storagePostgres = "postgres"
)

type Config struct {
	TelegramBotToken               string        `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramAuthorizedUserIDs      []int64       `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
	TelegramUpdateListenerPoolSize int           `env:"TELEGRAM_UPDATE_LISTENER_POOL_SIZE" envDefault:"10"`
	TelegramEditInterval           time.Duration `env:"TELEGRAM_EDIT_INTERVAL" envDefault:"1s"`
	AdminUserIDs                   []int64       `env:"ADMIN_USER_IDS" envSeparator:" "`

	OpenAIToken            string `env:"OPEN_AI_TOKEN,required"`
	OpenAIBaseURL          string `env:"OPENAI_BASE_URL"`
	OpenAITextModel        string `env:"OPENAI_TEXT_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIVisionModel      string `env:"OPENAI_VISION_MODEL" envDefault:"gpt-4o"`
	OpenAITranslationModel string `env:"OPENAI_TRANSLATION_MODEL"`

	BhashiniURL          string `env:"BHASHINI_URL" envDefault:"http://localhost:8000"`
	TranslationCacheSize int    `env:"TRANSLATION_CACHE_SIZE" envDefault:"0"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	PgURL         string `env:"DATABASE_URL"`
	PgHost        string `env:"DB_HOST" envDefault:"localhost:65432"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"nyay-sahayak.db"`

	ChatTTL time.Duration `env:"CHAT_TTL" envDefault:"24h"`

	DigitalOceanToken string `env:"DO_TOKEN"`
	StatusAddr        string `env:"STATUS_ADDR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`
	NoColor  bool   `env:"NO_COLOR"`
}

func main() {
	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing env config: %w", err)
	}

	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.NewOptions(cfg.LogLevel, cfg.NoColor))))

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("closing storage failed", logger.Err(err))
		}
	}()

	workerGroup, cache, err := setupWorkers(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	err = workerGroup.Start(ctx)
	slog.Info("translation cache", "stats", cache.Stats())
	return err
}

// openStore picks the key-value backend for languages and progress.
func openStore(cfg Config) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	var (
		db      *sql.DB
		dialect database.Dialect
		err     error
	)
	switch cfg.StorageDriver {
	case storageMemory, "":
		return storage.NewMemory(), noop, nil
	case storageSQLite:
		db, err = database.NewSQLite(cfg.SQLitePath)
		dialect = database.SQLite
	case storagePostgres:
		db, err = database.NewPostgres(cfg.PgURL, cfg.PgHost)
		dialect = database.Postgres
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating db: %w", err)
	}

	slog.Info("using persistent storage", "driver", cfg.StorageDriver)
	return repository.NewKeyValueRepository(db, dialect), db.Close, nil
}

func setupWorkers(cfg Config, store storage.Store) (workers.Group, *translation.Cache, error) {
	var workerGroup workers.Group

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramEditInterval)
	if err != nil {
		return nil, nil, fmt.Errorf("creating telegram client: %w", err)
	}
	authenticator := auth.NewAuthenticator(cfg.TelegramAuthorizedUserIDs)

	openAIClient, err := openai.NewClient(openai.Config{
		Token:            cfg.OpenAIToken,
		BaseURL:          cfg.OpenAIBaseURL,
		TextModel:        cfg.OpenAITextModel,
		VisionModel:      cfg.OpenAIVisionModel,
		TranslationModel: cfg.OpenAITranslationModel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating open ai client: %w", err)
	}

	cache, err := translation.NewCache(openAIClient,
		translation.WithCapacity(cfg.TranslationCacheSize),
		translation.WithLogger(slog.Default().With("component", "translation")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating translation cache: %w", err)
	}

	catalog, err := learn.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading learning catalog: %w", err)
	}

	bhashiniClient := bhashini.NewClient(cfg.BhashiniURL)
	sessions := session.NewManager(store, cache)
	tracker := progress.NewTracker(store)

	chatRepository := repository.NewChatRepository(cfg.ChatTTL)
	documentRepository := repository.NewDocumentRepository(cfg.ChatTTL)
	quizRepository := repository.NewQuizRepository()

	busy := services.NewBusyTracker()

	chatService := services.NewChatService(
		chatRepository,
		openAIClient,
		bhashiniClient,
		sessions,
		telegramClient,
		busy,
		documentRepository,
		quizRepository,
	)

	documentService := services.NewDocumentService(
		documentRepository,
		openAIClient,
		telegramClient,
		sessions,
		telegramClient,
		busy,
	)

	voiceService := services.NewVoiceService(
		converter.NewAudioToMP3(),
		openAIClient,
		telegramClient,
		bhashiniClient,
		sessions,
		telegramClient,
		busy,
		chatService,
		documentService,
	)

	speechService := services.NewSpeechService(
		chatRepository,
		documentRepository,
		bhashiniClient,
		sessions,
		telegramClient,
	)

	learnService := services.NewLearnService(
		catalog,
		tracker,
		quizRepository,
		sessions,
		telegramClient,
	)

	languageService := services.NewLanguageService(bhashiniClient, sessions, telegramClient)

	var balanceProvider services.BalanceProvider
	if cfg.DigitalOceanToken != "" {
		balanceProvider = digitalocean.NewClient(cfg.DigitalOceanToken)
	}
	adminService := services.NewAdminService(balanceProvider, cfg.AdminUserIDs, telegramClient)

	updateHandler := telegram.NewHandler(
		chatService,
		documentService,
		voiceService,
		speechService,
		learnService,
		languageService,
		adminService,
	)

	workerGroup = append(workerGroup, workers.NewTelegramUpdateListener(
		telegramClient,
		authenticator,
		updateHandler,
		cfg.TelegramUpdateListenerPoolSize,
	))

	if cfg.StatusAddr != "" {
		workerGroup = append(workerGroup, workers.NewStatusServer(cfg.StatusAddr, handler.NewStatus(cache)))
	}

	return workerGroup, cache, nil
}
