package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

// SettingsRepository handles ledger-wide key/value settings such as the admin identity
type SettingsRepository struct{}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

// Get returns the value stored under key, or "" if unset
func (r *SettingsRepository) Get(db DBExecutor, key string) (string, error) {
	var value string
	if err := db.Get(&value, `SELECT value FROM ledger_settings WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, nil
}

// SetIfAbsent stores value under key unless the key already exists
func (r *SettingsRepository) SetIfAbsent(db DBExecutor, key, value string) error {
	query := `
		INSERT INTO ledger_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`
	if _, err := db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}
