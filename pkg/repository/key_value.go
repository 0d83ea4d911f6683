package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dskvich/nyay-sahayak-bot/pkg/database"
	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
)

type keyValueRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewKeyValueRepository(db *sql.DB, dialect database.Dialect) *keyValueRepository {
	return &keyValueRepository{db: db, dialect: dialect}
}

// bind rewrites $n placeholders for drivers that only understand "?".
func (k *keyValueRepository) bind(query string) string {
	if k.dialect != database.SQLite {
		return query
	}
	out := make([]byte, 0, len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			out = append(out, '?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func (k *keyValueRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `
		SELECT value
		FROM key_values
		WHERE key = $1
	`

	var value string
	err := k.db.QueryRowContext(ctx, k.bind(query), key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("fetching value by key: %w", err)
	}

	return value, nil
}

func (k *keyValueRepository) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO key_values (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := k.db.ExecContext(ctx, k.bind(query), key, value); err != nil {
		return fmt.Errorf("saving value: %w", err)
	}

	return nil
}

func (k *keyValueRepository) Remove(ctx context.Context, key string) error {
	const query = `DELETE FROM key_values WHERE key = $1`

	if _, err := k.db.ExecContext(ctx, k.bind(query), key); err != nil {
		return fmt.Errorf("removing value: %w", err)
	}

	return nil
}
