package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridcast-dev/gridcast/internal/config"
	"github.com/gridcast-dev/gridcast/internal/simdemo"
	"github.com/gridcast-dev/gridcast/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		addr      string
		adminAddr string
		width     uint32
		height    uint32
		rate      float64
		elevMin   float32
		elevMax   float32
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a streaming server fed by the demo surface",
		Long: `Run a streaming server that broadcasts an animated demo surface.

Settings come from gridcast.json in the working directory when it
exists; flags set on the command line override the file.

The admin endpoint serves Prometheus metrics on /metrics, a health
check on /healthz, and a JSON status summary on /statusz. Browser
viewers can connect to the same stream on /stream via WebSocket.

Examples:
  gridcast serve
  gridcast serve --addr=:26000 --rate=30
  gridcast serve --width=321 --height=241`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			if config.Exists(".") {
				loaded, err := config.Load(".")
				if err != nil {
					return err
				}
				cfg = loaded
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Address = addr
			}
			if flags.Changed("admin-addr") {
				cfg.Server.AdminAddress = adminAddr
			}
			if flags.Changed("width") {
				cfg.Server.GridWidth = width
			}
			if flags.Changed("height") {
				cfg.Server.GridHeight = height
			}
			if flags.Changed("rate") {
				cfg.Stream.Rate = rate
			}
			if flags.Changed("elev-min") {
				cfg.Server.ElevationMin = elevMin
			}
			if flags.Changed("elev-max") {
				cfg.Server.ElevationMax = elevMax
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":26000", "TCP address to stream on")
	cmd.Flags().StringVar(&adminAddr, "admin-addr", ":26080", "HTTP address for metrics and WebSocket viewers (empty to disable)")
	cmd.Flags().Uint32Var(&width, "width", 641, "Grid width in cell corners")
	cmd.Flags().Uint32Var(&height, "height", 481, "Grid height in cell corners")
	cmd.Flags().Float64VarP(&rate, "rate", "r", 30, "Frames per second")
	cmd.Flags().Float32Var(&elevMin, "elev-min", -100, "Lower elevation bound")
	cmd.Flags().Float32Var(&elevMax, "elev-max", 100, "Upper elevation bound")

	return cmd
}

func runServe(cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if cfg.Name != "" {
		logger = logger.With("deployment", cfg.Name)
	}

	srvConfig := server.DefaultConfig()
	srvConfig.Address = cfg.Server.Address
	srvConfig.GridWidth = cfg.Server.GridWidth
	srvConfig.GridHeight = cfg.Server.GridHeight
	srvConfig.CellSize = [2]float32{cfg.Server.CellWidth, cfg.Server.CellHeight}
	srvConfig.ElevationMin = cfg.Server.ElevationMin
	srvConfig.ElevationMax = cfg.Server.ElevationMax
	srvConfig.Logger = logger

	srv, err := server.New(srvConfig)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Close()

	if cfg.Server.AdminAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/stream", srv.WebSocketHandler())
		mux.Handle("/", srv.AdminHandler())
		admin := &http.Server{Addr: cfg.Server.AdminAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("admin endpoint listening", "addr", cfg.Server.AdminAddress)
			if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin endpoint failed", "err", err)
			}
		}()
		defer admin.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := simdemo.New(cfg.Server.GridWidth, cfg.Server.GridHeight,
		cfg.Server.ElevationMin, cfg.Server.ElevationMax)
	interval := time.Duration(float64(time.Second) / cfg.Stream.Rate)
	err = source.Run(ctx, interval, srv.Submit)
	if err == context.Canceled {
		logger.Info("shutting down")
		return nil
	}
	return err
}
