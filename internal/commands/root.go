package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/hypeflow"
)

// NewRoot builds the root command with the global flags bound to flags.
// Subcommands are added by RegisterAll.
func NewRoot(flags *Flags) *cli.Command {
	return &cli.Command{
		Name:      "hypeflow",
		Usage:     "Notifications and subscription plans for card collectors",
		UsageText: "hypeflow [global options] command [command options]",
		Description: `HypeFlow keeps a bounded history of price, market, grading and portfolio
notifications and meters daily usage against Free, Pro and Elite plans.

Run 'hypeflow login <id>' to create a profile, then 'hypeflow watch' to stream
notifications or 'hypeflow plan usage' to see where you stand today.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("HYPEFLOW_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/hypeflow.log)",
				Sources:     cli.EnvVars("HYPEFLOW_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("HYPEFLOW_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("HYPEFLOW_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.BoolFlag{
				Name:        "ephemeral",
				Usage:       "keep all state in memory for this invocation",
				Sources:     cli.EnvVars("HYPEFLOW_EPHEMERAL"),
				Destination: &flags.Ephemeral,
			},
		},
	}
}

// RegisterAll adds every subcommand to root. app may be an empty App that is
// populated later; commands only dereference it when they run.
func RegisterAll(root *cli.Command, flags *Flags, app *hypeflow.App) *cli.Command {
	root = NewAuthCmd(flags, app).Register(root)
	root = NewNotifyCmd(flags, app).Register(root)
	root = NewPlanCmd(flags, app).Register(root)
	root = NewUseCmd(flags, app).Register(root)
	root = NewWatchCmd(flags, app).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)
	return root
}
