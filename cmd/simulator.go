package main

import (
	"context"

	"github.com/spf13/cobra"

	_ "irrigation_panel/docs"
	"irrigation_panel/internal/handlers"
	"irrigation_panel/internal/metrics"
	"irrigation_panel/internal/mqtt"
	"irrigation_panel/internal/repository"
	"irrigation_panel/internal/repository/db"
	"irrigation_panel/internal/server"
	"irrigation_panel/internal/service"
)

func newSimulatorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "simulator",
		Short: "Run a simulated irrigation controller exposing the macro API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulator()
		},
	}
}

func (a *app) runSimulator() error {
	cfg, log := a.cfg.Simulator, a.log

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	deps := service.Deps{
		SaveDelay: cfg.SaveDelay,
		JWTKey:    cfg.JWTKey,
		Logger:    log,
		Metrics:   m,
	}

	if a.cfg.MQTT.Broker != "" {
		pub := mqtt.New(a.cfg.MQTT, log)
		if err := pub.Connect(); err != nil {
			log.Warnw("mqtt_disabled", "err", err)
		} else {
			pub.Start(ctx)
			defer pub.Close()
			deps.Publisher = pub
		}
	}

	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, deps)
	if err := services.Load(ctx); err != nil {
		return err
	}

	// Run saves pending settings after cancel; wait for it before closing the db.
	done := make(chan struct{})
	go func() {
		defer close(done)
		services.Run(ctx, cfg.Tick)
	}()

	handler := handlers.NewHandler(services, log, handlers.Options{Auth: cfg.Auth, Metrics: m})
	log.Infow("simulator_started", "db", cfg.DBPath, "auth", cfg.Auth, "mqtt", a.cfg.MQTT.Broker != "")

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, handler.InitRoutes(), log)

	waitForShutdown(cancel, srv, log)
	<-done
	return nil
}
