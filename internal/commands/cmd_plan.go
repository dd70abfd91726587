package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/entitlement"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/hypeflow"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/printer"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/pkg/iojson"
)

const dateFormat = "Jan 2, 2006"

type PlanCmd struct {
	flags  *Flags
	app    *hypeflow.App
	format string
	method string
}

// NewPlanCmd creates the plan command group.
func NewPlanCmd(flags *Flags, app *hypeflow.App) *PlanCmd {
	return &PlanCmd{flags: flags, app: app}
}

func (cmd *PlanCmd) formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "format",
		Usage:       "output format (text, json)",
		Value:       "text",
		Destination: &cmd.format,
	}
}

// Register adds the plan command group to the application.
func (cmd *PlanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "plan",
		Usage: "Subscription tiers, usage and billing",
		Commands: []*cli.Command{
			{
				Name:   "tiers",
				Usage:  "List subscription tiers",
				Flags:  []cli.Flag{cmd.formatFlag()},
				Action: cmd.runTiers,
			},
			{
				Name:   "current",
				Usage:  "Show the current tier",
				Flags:  []cli.Flag{cmd.formatFlag()},
				Action: cmd.runCurrent,
			},
			{
				Name:   "compare",
				Usage:  "Compare features across tiers",
				Flags:  []cli.Flag{cmd.formatFlag()},
				Action: cmd.runCompare,
			},
			{
				Name:   "usage",
				Usage:  "Show today's usage against the current tier",
				Flags:  []cli.Flag{cmd.formatFlag()},
				Action: cmd.runUsage,
			},
			{
				Name:   "billing",
				Usage:  "Show billing details",
				Flags:  []cli.Flag{cmd.formatFlag()},
				Action: cmd.runBilling,
			},
			{
				Name:   "recommend",
				Usage:  "Suggest a tier from today's usage",
				Flags:  []cli.Flag{cmd.formatFlag()},
				Action: cmd.runRecommend,
			},
			{
				Name:      "upgrade",
				Usage:     "Upgrade to a paid tier",
				UsageText: "hypeflow plan upgrade [--method card] <pro|elite>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "method",
						Usage:       "payment method",
						Value:       "card",
						Destination: &cmd.method,
					},
					cmd.formatFlag(),
				},
				Action: cmd.runUpgrade,
			},
			{
				Name:   "cancel",
				Usage:  "Cancel the subscription and return to Free",
				Action: cmd.runCancel,
			},
			{
				Name:      "needs",
				Usage:     "Report whether a feature requires an upgrade",
				UsageText: "hypeflow plan needs <feature>\n\nfeatures: " + strings.Join(entitlement.FeatureKeys, ", "),
				Action:    cmd.runNeeds,
			},
		},
	})
	return app
}

func (cmd *PlanCmd) runTiers(ctx context.Context, c *cli.Command) error {
	tiers := cmd.app.Gate.SubscriptionTiers()
	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, tiers)
	}

	p := printer.Ctx(ctx)
	current := cmd.app.Gate.CurrentSubscription().Name
	for i, t := range tiers {
		if i > 0 {
			p.Printf("")
		}
		header := fmt.Sprintf("%s  %s/month", t.DisplayName, t.Price)
		if t.Name == current {
			header += "  (current)"
		}
		p.Printf("%s", p.Render(header, false))
		for _, f := range t.Features {
			p.Mutedf("%s", f)
		}
	}
	return nil
}

func (cmd *PlanCmd) runCurrent(ctx context.Context, c *cli.Command) error {
	t := cmd.app.Gate.CurrentSubscription()
	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, t)
	}
	printer.Ctx(ctx).Printf("%s (%s/month)", t.DisplayName, t.Price)
	return nil
}

func (cmd *PlanCmd) runCompare(ctx context.Context, c *cli.Command) error {
	rows := cmd.app.Gate.FeatureComparison()
	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, rows)
	}

	p := printer.Ctx(ctx)
	p.Printf("%s", renderTable(p, comparisonHeaders, comparisonRows(rows)))
	return nil
}

func (cmd *PlanCmd) runUsage(ctx context.Context, c *cli.Command) error {
	stats := cmd.app.Gate.UsageStats(ctx)
	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, stats)
	}

	p := printer.Ctx(ctx)
	p.Printf("%s", renderTable(p, []string{"", "USED", "LIMIT", "REMAINING"}, [][]string{
		usageRow("Gradings today", stats.Gradings),
		usageRow("Oracle questions today", stats.Oracle),
		usageRow("Portfolio cards", stats.Portfolio),
	}))
	return nil
}

func (cmd *PlanCmd) runBilling(ctx context.Context, c *cli.Command) error {
	info := cmd.app.Gate.BillingInfo()
	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, info)
	}

	p := printer.Ctx(ctx)
	if info == nil {
		p.Infof("Not signed in")
		return nil
	}

	p.Printf("plan:          %s (%s/month)", info.Tier, info.Price)
	if info.StartDate != nil {
		p.Printf("started:       %s", info.StartDate.Format(dateFormat))
	}
	if info.NextBillingDate != nil && info.Price > 0 {
		p.Printf("next billing:  %s", info.NextBillingDate.Format(dateFormat))
	}
	if info.EndDate != nil {
		p.Printf("ended:         %s", info.EndDate.Format(dateFormat))
	}
	if info.PaymentMethod != "" {
		p.Printf("payment:       %s", info.PaymentMethod)
	}
	return nil
}

func (cmd *PlanCmd) runRecommend(ctx context.Context, c *cli.Command) error {
	rec := cmd.app.Gate.RecommendedTier(ctx)
	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, map[string]string{"recommended": string(rec)})
	}

	p := printer.Ctx(ctx)
	if rec == cmd.app.Gate.CurrentSubscription().Name {
		p.Infof("Your current plan fits your usage")
		return nil
	}
	t, _ := entitlement.Lookup(rec)
	p.Infof("Recommended plan: %s (%s/month)", t.DisplayName, t.Price)
	return nil
}

func (cmd *PlanCmd) runUpgrade(ctx context.Context, c *cli.Command) error {
	name, err := entitlement.ParseName(c.Args().First())
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	p.Infof("Processing payment...")

	res, err := cmd.app.Gate.UpgradeSubscription(ctx, name, cmd.method)
	if err != nil {
		var perr *entitlement.PaymentError
		if errors.As(err, &perr) {
			p.Errorf("%s", perr.Error())
			return cli.Exit("", 1)
		}
		return err
	}

	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, res)
	}
	p.Successf("Upgraded to %s", res.Tier.DisplayName)
	if res.Receipt != nil {
		p.Mutedf("transaction %s", res.Receipt.TransactionID)
	}
	return nil
}

func (cmd *PlanCmd) runCancel(ctx context.Context, _ *cli.Command) error {
	if _, err := cmd.app.Gate.CancelSubscription(ctx); err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("Subscription cancelled; you are on the Free plan")
	return nil
}

func (cmd *PlanCmd) runNeeds(ctx context.Context, c *cli.Command) error {
	feature := c.Args().First()
	if feature == "" {
		return fmt.Errorf("feature is required (one of %s)", strings.Join(entitlement.FeatureKeys, ", "))
	}

	p := printer.Ctx(ctx)
	if cmd.app.Gate.NeedsUpgradeForFeature(ctx, feature) {
		p.Warnf("%s requires an upgrade", feature)
		return cli.Exit("", 1)
	}
	p.Successf("%s is included in your plan", feature)
	return nil
}

var comparisonHeaders = []string{"FEATURE", "FREE", "PRO", "ELITE"}

func comparisonRows(rows []entitlement.ComparisonRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Feature, r.Free, r.Pro, r.Elite})
	}
	return out
}

func usageRow(label string, u entitlement.Usage) []string {
	if u.Unlimited {
		return []string{label, fmt.Sprint(u.Used), "unlimited", "unlimited"}
	}
	return []string{label, fmt.Sprint(u.Used), u.Limit.String(), fmt.Sprint(u.Remaining())}
}
