// Package settings persists the flat key-value configuration consulted by the
// webhook dispatcher and the settings panel. Reads always hit the database so
// a change takes effect on the very next dispatch.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Well-known keys.
const (
	KeyWebhookURL   = "webhook_url"
	KeyAgentEnabled = "agent_enabled"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads and writes settings rows.
type Store struct {
	db querier
}

// NewStore creates a store backed by a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("settings: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithQuerier(db querier) *Store {
	if db == nil {
		panic("settings: querier required")
	}
	return &Store{db: db}
}

// Get returns the value for key, or "" when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("settings: get %s: %w", key, err)
	}
	return value, nil
}

// GetMany returns the values for the given keys. Absent keys map to "".
func (s *Store) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		values[key] = ""
	}

	rows, err := s.db.Query(ctx, `SELECT key, value FROM settings WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("settings: get many: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("settings: scan: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}

// All returns every settings row.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("settings: scan: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}

// Set upserts a single key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("settings: set %s: %w", key, err)
	}
	return nil
}

// WebhookConfig is the dispatch configuration read fresh per call.
type WebhookConfig struct {
	URL          string
	AgentEnabled bool
}

// WebhookConfig loads webhook_url and agent_enabled in one round trip.
// The agent counts as enabled unless the stored value is exactly "false",
// matching how the settings panel persists the toggle.
func (s *Store) WebhookConfig(ctx context.Context) (WebhookConfig, error) {
	values, err := s.GetMany(ctx, KeyWebhookURL, KeyAgentEnabled)
	if err != nil {
		return WebhookConfig{}, err
	}
	return WebhookConfig{
		URL:          values[KeyWebhookURL],
		AgentEnabled: values[KeyAgentEnabled] != "false",
	}, nil
}
