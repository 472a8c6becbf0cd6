package repository

import (
	"context"
	"database/sql"
	"time"

	"irrigation_panel/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type SettingsRepo interface {
	Save(ctx context.Context, s models.Settings) error
	Load(ctx context.Context) (models.Settings, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ChannelEvent) error
	List(ctx context.Context, q EventQuery) ([]models.ChannelEvent, error)
}

// EventQuery filters the event log. Zero values disable a filter.
type EventQuery struct {
	From    time.Time
	To      time.Time
	Type    string
	Channel *int
	Limit   int
}

type Repository struct {
	Settings SettingsRepo
	Events   EventRepo
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings: NewSettingsSQLite(db),
		Events:   NewEventSQLite(db),
		Auth:     NewUserRepository(db),
	}
}
