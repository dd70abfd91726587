package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/profile"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/hypeflow"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/printer"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/pkg/iojson"
)

type AuthCmd struct {
	flags  *Flags
	app    *hypeflow.App
	name   string
	format string
}

// NewAuthCmd creates the login, logout and whoami commands.
func NewAuthCmd(flags *Flags, app *hypeflow.App) *AuthCmd {
	return &AuthCmd{flags: flags, app: app}
}

// Register adds the auth commands to the application.
func (cmd *AuthCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "login",
			Usage:     "Sign in as a user, creating a free profile on first use",
			UsageText: "hypeflow login [--name NAME] <user-id>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "name",
					Usage:       "display name",
					Destination: &cmd.name,
				},
			},
			Action: cmd.runLogin,
		},
		&cli.Command{
			Name:   "logout",
			Usage:  "Sign out the current user",
			Action: cmd.runLogout,
		},
		&cli.Command{
			Name:  "whoami",
			Usage: "Show the signed-in user",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "format",
					Usage:       "output format (text, json)",
					Value:       "text",
					Destination: &cmd.format,
				},
			},
			Action: cmd.runWhoami,
		},
	)
	return app
}

func (cmd *AuthCmd) runLogin(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("user id is required")
	}

	u, err := cmd.app.Login(ctx, id, cmd.name)
	if err != nil {
		return err
	}

	printer.Ctx(ctx).Successf("Signed in as %s (%s plan)", displayName(u), u.Subscription)
	return nil
}

func (cmd *AuthCmd) runLogout(ctx context.Context, _ *cli.Command) error {
	if err := cmd.app.Logout(ctx); err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("Signed out")
	return nil
}

func (cmd *AuthCmd) runWhoami(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	u, err := cmd.app.Profiles.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, u)
	}

	p.Printf("%s", displayName(u))
	p.Printf("  plan:      %s", u.Subscription)
	p.Printf("  portfolio: %d cards", u.PortfolioSize())
	if u.PaymentMethod != "" {
		p.Printf("  payment:   %s", u.PaymentMethod)
	}
	return nil
}

func displayName(u *profile.User) string {
	if u.Name == "" {
		return u.ID
	}
	return fmt.Sprintf("%s <%s>", u.Name, u.ID)
}
