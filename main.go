package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/commands"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/config"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/logging"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/data/db"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/data/stores"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/hypeflow"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/printer"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag, or from
	// runtime/debug.BuildInfo by build() when installed with go install.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// openStore opens the SQLite store, moving a corrupted database aside and
// retrying once.
func openStore(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	log.Warn().Err(err).Msg("database is corrupted, starting fresh")
	if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
		return nil, fmt.Errorf("%w (recovery failed: %v)", err, rerr)
	}
	return db.Open(cfg.DataDir, opts)
}

func main() {
	ctx := context.Background()

	// HYPEFLOW_* variables from a local .env file, if present, feed the flag sources.
	_ = godotenv.Load()

	var (
		logCloser func()
		flowApp   = &hypeflow.App{}
		database  *db.DB
	)

	flags := &commands.Flags{}

	app := commands.NewRoot(flags)
	app.Version = build()
	app.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		// Always log to a file; use explicit path or default to <datadir>/hypeflow.log
		logFile := flags.LogFile
		if logFile == "" {
			logFile = filepath.Join(flags.DataDir, "hypeflow.log")
		}

		logger, closer, err := logutils.New(logutils.Options{Level: flags.LogLevel, File: logFile})
		if err != nil {
			return ctx, fmt.Errorf("setup logger: %w", err)
		}
		log.Logger = logger.Hook(logging.ContextHook{})
		logCloser = closer

		cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
		if err != nil {
			return ctx, fmt.Errorf("load config: %w", err)
		}
		flags.Config = cfg

		var store kv.KV
		if flags.Ephemeral {
			store = kv.NewMemory()
		} else {
			database, err = openStore(cfg)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}
			store = stores.NewKVStore(database)
		}

		built, err := hypeflow.New(ctx, cfg, store, hypeflow.Options{
			Sound: notify.TerminalBell(),
		})
		if err != nil {
			return ctx, err
		}

		// Populate the pre-allocated App struct (commands already hold a pointer to it)
		*flowApp = *built
		flowApp.StartSweep(ctx)

		ctx = printer.NewContext(ctx, printer.New(c.Root().Writer))
		if u := flowApp.Gate.User(); u != nil {
			ctx = logging.WithUserID(ctx, u.ID)
		}
		return ctx, nil
	}
	app.After = func(ctx context.Context, c *cli.Command) error {
		if flowApp.Notifications != nil {
			flowApp.Close()
		}

		// Close database connection
		if database != nil {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}
		}

		// Close log file
		if logCloser != nil {
			logCloser()
		}
		return nil
	}

	app = commands.RegisterAll(app, flags, flowApp)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
