package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridcast-dev/gridcast/pkg/client"
)

func watchCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to a server and report decoded frames",
		Long: `Connect to a streaming server, decode its broadcast, and
periodically log the water level at the grid center.

Examples:
  gridcast watch --addr=localhost:26000
  gridcast watch --interval=5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(addr, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:26000", "Server address")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Reporting interval")

	return cmd
}

func runWatch(addr string, interval time.Duration) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	c, err := client.Dial(addr, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	hs := c.Handshake()
	w, h := int(hs.GridSize[0]), int(hs.GridSize[1])

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap, ok := c.Grids()
				if !ok {
					continue
				}
				center := snap.WaterLevel[(h/2)*w+w/2]
				logger.Info("frame", "n", snap.Frame, "center_water_level", center)
			}
		}
	}()

	return c.Run()
}
