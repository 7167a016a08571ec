package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lehmann314159/dictlookup/internal/models"
)

// SQLiteRepository implements Store using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetPreference returns the value stored under key
func (r *SQLiteRepository) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get preference %q: %w", key, err)
	}
	return value, true, nil
}

// SetPreference stores value under key
func (r *SQLiteRepository) SetPreference(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to set preference %q: %w", key, err)
	}
	return nil
}

// LoadLanguages returns the cached languages ordered as they were saved
func (r *SQLiteRepository) LoadLanguages(ctx context.Context) ([]models.Language, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name, favorite FROM languages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer rows.Close()

	var langs []models.Language
	for rows.Next() {
		var lang models.Language
		if err := rows.Scan(&lang.Code, &lang.Name, &lang.Favorite); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		langs = append(langs, lang)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return langs, nil
}

// SaveLanguages replaces the cached languages
func (r *SQLiteRepository) SaveLanguages(ctx context.Context, langs []models.Language) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM languages`); err != nil {
			return fmt.Errorf("failed to clear languages: %w", err)
		}
		for i, lang := range langs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO languages (code, name, favorite, position) VALUES (?, ?, ?, ?)`,
				lang.Code, lang.Name, lang.Favorite, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert language %q: %w", lang.Code, err)
			}
		}
		return nil
	})
}

// PurgeLanguages drops the cached languages and their freshness timestamp
func (r *SQLiteRepository) PurgeLanguages(ctx context.Context) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM languages`); err != nil {
			return fmt.Errorf("failed to clear languages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, PrefLanguagesTimestamp); err != nil {
			return fmt.Errorf("failed to clear languages timestamp: %w", err)
		}
		return nil
	})
}

// LoadHistory returns the saved history in insertion order
func (r *SQLiteRepository) LoadHistory(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT text FROM history ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, text)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// SaveHistory replaces the saved history. Duplicate entries keep their first position.
func (r *SQLiteRepository) SaveHistory(ctx context.Context, entries []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		now := time.Now()
		for i, text := range entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO history (position, text, created_at) VALUES (?, ?, ?)
				 ON CONFLICT(text) DO NOTHING`,
				i, text, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert history entry: %w", err)
			}
		}
		return nil
	})
}

// withTx runs fn in a transaction, committing on success
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
