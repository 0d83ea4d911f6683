package main

import (
	"context"
	"testing"
	"time"

	"github.com/caarlos0/env/v9"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"TELEGRAM_BOT_TOKEN":           "bot",
		"OPEN_AI_TOKEN":                "ai",
		"TELEGRAM_AUTHORIZED_USER_IDS": "1 2 3",
	}})
	if err != nil {
		t.Fatalf("parsing config: %v", err)
	}

	if cfg.TelegramEditInterval != time.Second {
		t.Errorf("edit interval = %v, want 1s", cfg.TelegramEditInterval)
	}
	if cfg.TelegramUpdateListenerPoolSize != 10 {
		t.Errorf("pool size = %d, want 10", cfg.TelegramUpdateListenerPoolSize)
	}
	if cfg.StorageDriver != storageMemory {
		t.Errorf("storage driver = %q, want memory", cfg.StorageDriver)
	}
	if len(cfg.TelegramAuthorizedUserIDs) != 3 || cfg.TelegramAuthorizedUserIDs[2] != 3 {
		t.Errorf("authorized ids = %v", cfg.TelegramAuthorizedUserIDs)
	}
}

func TestConfigRequiresTokens(t *testing.T) {
	cfg := Config{}
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	if err == nil {
		t.Fatal("expected missing tokens to fail")
	}
}

func TestOpenStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{StorageDriver: storageMemory}},
		{name: "sqlite", cfg: Config{StorageDriver: storageSQLite, SQLitePath: ":memory:"}},
		{name: "unknown", cfg: Config{StorageDriver: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := openStore(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("opening store: %v", err)
			}
			defer closeFn()

			ctx := context.Background()
			if err := store.Set(ctx, "language:1", "hi"); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, err := store.Get(ctx, "language:1")
			if err != nil || got != "hi" {
				t.Errorf("get = %q, %v", got, err)
			}
		})
	}
}
