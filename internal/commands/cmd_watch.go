package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/hypeflow"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/metrics"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/printer"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/pkg/iojson"
)

type WatchCmd struct {
	flags       *Flags
	app         *hypeflow.App
	metricsPort int
	pprof       bool
	format      string
	timeout     time.Duration
}

// NewWatchCmd creates the watch command.
func NewWatchCmd(flags *Flags, app *hypeflow.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "watch",
		Usage: "Run the notification producers and stream new notifications",
		Description: `Starts the random generator, the portfolio monitor and the market monitor,
then prints each notification as it is added until interrupted.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "metrics-port",
				Usage:       "serve Prometheus metrics on this port (0 disables)",
				Sources:     cli.EnvVars("HYPEFLOW_METRICS_PORT"),
				Destination: &cmd.metricsPort,
			},
			&cli.BoolFlag{
				Name:        "pprof",
				Usage:       "also serve /debug/pprof on the metrics port",
				Destination: &cmd.pprof,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "stop after this long (0 runs until interrupted)",
				Destination: &cmd.timeout,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.timeout)
		defer cancel()
	}

	if cmd.metricsPort > 0 {
		srv := metrics.NewServer(cmd.metricsPort, cmd.pprof)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/metrics", srv.Addr())).
			Msg("metrics endpoint available")
	}

	p := printer.Ctx(ctx)
	w := c.Root().Writer
	records := make(chan notify.Record, notify.MaxRecords)

	engine := cmd.app.Notifications
	sub := engine.Subscribe(func(r notify.Record) {
		select {
		case records <- r:
		default:
			log.Warn().Int64("id", r.ID).Msg("watch output is behind; dropping notification")
		}
	})
	defer engine.Unsubscribe(sub)

	engine.Start(ctx)
	defer engine.Stop()

	if cmd.format != "json" {
		p.Infof("Watching notifications (%d unread). Press Ctrl+C to stop.", engine.UnreadCount())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-records:
			if cmd.format == "json" {
				if err := iojson.WriteLine(w, r); err != nil {
					return err
				}
				continue
			}
			printRecord(p, r)
		}
	}
}

func printRecord(p *printer.Printer, r notify.Record) {
	title := r.Title
	if r.Urgent {
		title = "[urgent] " + title
	}
	p.Printf("%s  %s", r.Timestamp.Format(time.Kitchen), p.Render(title, r.Urgent))
	if r.Message != "" {
		p.Mutedf("%s", r.Message)
	}
}
