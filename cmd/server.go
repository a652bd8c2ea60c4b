package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/restaurant-ops/internal/config"
	"github.com/example/restaurant-ops/internal/logging"
	"github.com/example/restaurant-ops/internal/scheduler"
	"github.com/example/restaurant-ops/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API and the outcome sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg, log, migrateUp)
			if err != nil {
				return err
			}
			defer a.Close()

			g, gctx := errgroup.WithContext(ctx)

			if cfg.SweepInterval > 0 {
				s := &scheduler.Scheduler{
					Reservations: a.reservations,
					Settings:     a.restaurants,
					Interval:     cfg.SweepInterval,
					Grace:        cfg.SweepGrace,
					Location:     cfg.Location,
					Log:          log.WithField("component", "sweeper"),
				}
				g.Go(func() error {
					if err := s.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}

			ws := &web.Server{
				Restaurants:  a.restaurants,
				Reservations: a.reservations,
				Menu:         a.menu,
				Cursors:      web.NewCursorCodec(cfg.CursorHashKey, cfg.CursorBlockKey),
				Log:          log,
				Ping:         a.ping,
			}
			g.Go(func() error {
				return web.Start(gctx, cfg.ListenAddr, ws.Routes(), log)
			})

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
