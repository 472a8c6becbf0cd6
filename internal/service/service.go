package service

import (
	"context"
	"time"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/metrics"
	"irrigation_panel/internal/models"
	"irrigation_panel/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
	Authenticate(ctx context.Context, username, password string) (int, error)
}

// Controller implements the macros exposed by the irrigation controller.
type Controller interface {
	Snapshot() irrigation.Snapshot
	SetMode(ctx context.Context, mode string) string
	SetStart(ctx context.Context, hour, minute int) (string, error)
	SetDay(ctx context.Context, day int, enabled bool) (int, error)
	SetDuration(ctx context.Context, channel, minutes int) (int, error)
	SwitchMaster(ctx context.Context, on bool) (int, error)
	SwitchChannel(ctx context.Context, channel int, on bool) (int, error)
}

// EventLog exposes the channel event history.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ChannelEvent, error)
}

// Scheduler loads the persisted settings and advances running channels.
// Run returns when ctx is cancelled, after switching every relay off and
// saving pending settings.
type Scheduler interface {
	Load(ctx context.Context) error
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Controller
	EventLog
	Scheduler
	Authorization
}

// Deps are the non-repository collaborators of the services.
type Deps struct {
	Relays    Relays
	Publisher StatusPublisher
	SaveDelay time.Duration
	JWTKey    string
	Logger    *logger.Logger
	Metrics   *metrics.Collector
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	relays := deps.Relays
	if relays == nil {
		relays = NewMemoryRelays(deps.Logger, deps.Metrics)
	}
	controller := NewControllerService(repos.Settings, repos.Events, ControllerOptions{
		Relays:    relays,
		Publisher: deps.Publisher,
		SaveDelay: deps.SaveDelay,
		Logger:    deps.Logger,
	})
	return &Service{
		Controller:    controller,
		EventLog:      NewEventLogService(repos.Events),
		Scheduler:     controller,
		Authorization: NewAuthService(repos.Auth, deps.JWTKey),
	}
}
