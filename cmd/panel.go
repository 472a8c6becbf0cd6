package main

import (
	"context"

	"github.com/spf13/cobra"

	"irrigation_panel/internal/dom"
	"irrigation_panel/internal/liveview"
	"irrigation_panel/internal/macro"
	"irrigation_panel/internal/metrics"
	"irrigation_panel/internal/panel"
	"irrigation_panel/internal/server"
	"irrigation_panel/internal/tracing"
)

func newPanelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "panel",
		Short: "Run the control panel against a controller and serve it to browsers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPanel()
		},
	}
}

func (a *app) runPanel() error {
	cfg, log := a.cfg.Panel, a.log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.Setup(ctx, a.cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warnw("tracing_shutdown_failed", "err", err)
		}
	}()

	m := metrics.New()
	client, err := macro.NewClient(macro.Options{
		BaseURL:  cfg.DeviceURL,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.CallTimeout,
		Metrics:  m,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	doc := dom.NewMemory(panel.ElementIDs()...)
	p := panel.New(doc, client, panel.Options{
		PollInterval: cfg.PollInterval,
		Logger:       log,
		Metrics:      m,
	})
	if missing := p.Bind(); len(missing) > 0 {
		log.Warnw("panel_elements_missing", "ids", missing)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			log.Errorw("panel_stopped", "err", err)
		}
	}()

	log.Infow("panel_started", "device", cfg.DeviceURL, "poll_interval", cfg.PollInterval, "tracing", tp.Enabled())

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, liveview.New(doc, liveview.Options{Logger: log, Metrics: m}).Routes(), log)

	waitForShutdown(cancel, srv, log)
	<-done
	return nil
}
