package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/entitlement"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/hypeflow"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/printer"
)

// UseCmd exposes the metered actions.
type UseCmd struct {
	flags *Flags
	app   *hypeflow.App
}

// NewUseCmd creates the grade, oracle and portfolio-add commands.
func NewUseCmd(flags *Flags, app *hypeflow.App) *UseCmd {
	return &UseCmd{flags: flags, app: app}
}

// Register adds the metered action commands to the application.
func (cmd *UseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "grade",
			Usage:     "Submit a card for AI grading",
			UsageText: "hypeflow grade <card>",
			Action:    cmd.runGrade,
		},
		&cli.Command{
			Name:      "oracle",
			Usage:     "Ask the market oracle a question",
			UsageText: "hypeflow oracle <question...>",
			Action:    cmd.runOracle,
		},
		&cli.Command{
			Name:      "portfolio-add",
			Usage:     "Add a card to the portfolio",
			UsageText: "hypeflow portfolio-add <card>",
			Action:    cmd.runPortfolioAdd,
		},
	)
	return app
}

func (cmd *UseCmd) runGrade(ctx context.Context, c *cli.Command) error {
	card := c.Args().First()
	if card == "" {
		return fmt.Errorf("card is required")
	}

	used, err := cmd.app.Use(ctx, entitlement.ActionGradeCard, entitlement.UsageGradings, func(ctx context.Context) error {
		cmd.app.Notifications.AddNotification(ctx, notify.Record{
			Type:    notify.TypeGrading,
			Title:   "Grading Submitted",
			Message: fmt.Sprintf("%s is queued for AI grading", card),
			Action:  "view_grading",
			Data:    map[string]any{"card": card},
		})
		return nil
	})
	if err != nil {
		return cmd.denied(ctx, err)
	}

	cmd.report(ctx, fmt.Sprintf("Submitted %s for grading", card), used, cmd.app.Gate.CurrentSubscription().Limits.DailyGradings)
	return nil
}

func (cmd *UseCmd) runOracle(ctx context.Context, c *cli.Command) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question is required")
	}

	used, err := cmd.app.Use(ctx, entitlement.ActionAskOracle, entitlement.UsageOracle, func(context.Context) error {
		return nil
	})
	if err != nil {
		return cmd.denied(ctx, err)
	}

	cmd.report(ctx, "Question sent to the oracle", used, cmd.app.Gate.CurrentSubscription().Limits.DailyOracleQuestions)
	return nil
}

func (cmd *UseCmd) runPortfolioAdd(ctx context.Context, c *cli.Command) error {
	card := c.Args().First()
	if card == "" {
		return fmt.Errorf("card is required")
	}

	u, err := cmd.app.AddPortfolioCard(ctx, card)
	if err != nil {
		return cmd.denied(ctx, err)
	}

	cmd.report(ctx, fmt.Sprintf("Added %s to your portfolio", card), u.PortfolioSize(), cmd.app.Gate.CurrentSubscription().Limits.PortfolioCards)
	return nil
}

func (cmd *UseCmd) report(ctx context.Context, msg string, used int, q entitlement.Quota) {
	p := printer.Ctx(ctx)
	p.Successf("%s", msg)
	if q.IsUnlimited() {
		p.Mutedf("%d used", used)
		return
	}
	p.Mutedf("%d of %s used", used, q)
}

// denied prints a quota error with an upgrade hint and exits non-zero.
// Other errors are returned unchanged.
func (cmd *UseCmd) denied(ctx context.Context, err error) error {
	if !errors.Is(err, hypeflow.ErrLimitReached) {
		return err
	}

	p := printer.Ctx(ctx)
	p.Errorf("%s", err)
	if rec := cmd.app.Gate.RecommendedTier(ctx); rec != entitlement.Free {
		p.Infof("Run 'hypeflow plan upgrade %s' to lift the limit", rec)
	}
	return cli.Exit("", 1)
}
