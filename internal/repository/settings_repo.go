package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"irrigation_panel/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO settings (id, auto, start_hour, start_minute, days, durations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			auto=excluded.auto,
			start_hour=excluded.start_hour,
			start_minute=excluded.start_minute,
			days=excluded.days,
			durations=excluded.durations,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT id, auto, start_hour, start_minute, days, durations, updated_at
		FROM settings WHERE id=?
	`
)

// Save upserts the single settings row.
func (r *SettingsSQLite) Save(ctx context.Context, s models.Settings) error {
	days, err := json.Marshal(s.Days)
	if err != nil {
		return fmt.Errorf("marshal days: %w", err)
	}
	durations, err := json.Marshal(s.Durations)
	if err != nil {
		return fmt.Errorf("marshal durations: %w", err)
	}

	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = r.db.ExecContext(ctx, upsertSettingsSQL,
		settingsRowID,
		s.Auto,
		s.StartHour,
		s.StartMinute,
		string(days),
		string(durations),
		ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Load returns the stored settings, or the zero value (ID 0) when nothing was saved yet.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, error) {
	var (
		s                     models.Settings
		daysStr, durationsStr string
	)
	err := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID).Scan(
		&s.ID,
		&s.Auto,
		&s.StartHour,
		&s.StartMinute,
		&daysStr,
		&durationsStr,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, nil
		}
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	if err := json.Unmarshal([]byte(daysStr), &s.Days); err != nil {
		return models.Settings{}, fmt.Errorf("decode days %q: %w", daysStr, err)
	}
	if err := json.Unmarshal([]byte(durationsStr), &s.Durations); err != nil {
		return models.Settings{}, fmt.Errorf("decode durations %q: %w", durationsStr, err)
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
