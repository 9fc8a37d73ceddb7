package main

import (
	"context"
	"net/http"
	"time"

	"github.com/shimmeringbee/cec"
	"github.com/shimmeringbee/cec/httpstatus"
	"github.com/shimmeringbee/cec/simulator"
	"github.com/shimmeringbee/cec/wsstream"
	"github.com/shimmeringbee/logwrap"
	"github.com/spf13/cobra"
)

var (
	httpAddr string
	wsAddr   string
	interval time.Duration
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status and event-stream servers against a repeating simulated bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", ":8080", "status API listen address")
	cmd.Flags().StringVar(&wsAddr, "ws", ":8081", "event stream listen address")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "delay between simulated discovery runs")

	return cmd
}

func runServe(ctx context.Context) error {
	cfg := cec.LoadDiscoveryConfigOrDefault(configPath)
	logger := bridgeLogger(log)
	cache := cec.NewMessageCache()

	hub := wsstream.NewHub()
	registry := httpstatus.NewRegistry(hub, cache.(cec.CacheInspector))

	httpServer := &http.Server{Addr: httpAddr, Handler: registry.Router()}
	wsServer := &http.Server{Addr: wsAddr, Handler: hub}

	go func() {
		log.WithField("addr", httpAddr).Info("status API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("status API stopped")
		}
	}()

	go func() {
		log.WithField("addr", wsAddr).Info("event stream listening")
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("event stream stopped")
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(ctx, logger, cfg, cache, hub)

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
			_ = wsServer.Shutdown(shutdownCtx)
			return nil
		case <-ticker.C:
			runOnce(ctx, logger, cfg, cache, hub)
		}
	}
}

func runOnce(ctx context.Context, logger logwrap.Logger, cfg cec.DiscoveryConfig, cache cec.MessageCache, hub *wsstream.Hub) {
	var action *cec.DiscoveryAction

	gw := simulator.NewGateway(logger, demoDevices(), cache,
		func(f cec.Frame) bool { return action.OnCommand(f) },
		func(s cec.DiscoveryState) { action.OnTimer(s) },
	)

	action = cec.NewDiscoveryAction(cec.DiscoveryActionDeps{
		Logger:  logger,
		Gateway: gw,
		Cache:   cache,
		Config:  cfg,
		Timer:   cec.NewHostActionTimer(gw.FireTimer),
		OnDiscoveryDone: func(list []cec.DeviceInfo) {
			hub.Publish(wsstream.Event{Kind: wsstream.EventRunFinished, RunID: action.RunID().String(), State: action.State().String(), Devices: list})
		},
	})

	action.OnDeviceDiscovered(func(_ context.Context, event cec.DeviceDiscoveredEvent) error {
		device := event.Info
		hub.Publish(wsstream.Event{Kind: wsstream.EventDeviceDiscovered, RunID: event.RunID.String(), Device: &device})
		return nil
	})

	go gw.Run(ctx)

	if _, err := action.Start(ctx); err != nil {
		return
	}

	hub.Publish(wsstream.Event{Kind: wsstream.EventPollComplete, RunID: action.RunID().String(), State: action.State().String()})
}
