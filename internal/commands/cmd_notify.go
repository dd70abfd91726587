package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/hypeflow"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/printer"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/pkg/iojson"
)

type NotifyCmd struct {
	flags *Flags
	app   *hypeflow.App

	// list flags
	limit  int
	all    bool
	format string

	// push flags
	pushType    string
	pushTitle   string
	pushMessage string
	pushUrgent  bool
	pushAction  string
	pushReader  iojson.FileReader[notify.Record]
}

// NewNotifyCmd creates the notify command group.
func NewNotifyCmd(flags *Flags, app *hypeflow.App) *NotifyCmd {
	return &NotifyCmd{flags: flags, app: app}
}

func (cmd *NotifyCmd) formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "format",
		Usage:       "output format (text, json)",
		Value:       "text",
		Destination: &cmd.format,
	}
}

// Register adds the notify command group to the application.
func (cmd *NotifyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "notify",
		Usage: "Inspect and manage notifications",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notifications, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "number of notifications to show",
						Value:       notify.DefaultLimit,
						Destination: &cmd.limit,
					},
					&cli.BoolFlag{
						Name:        "all",
						Usage:       "show the full history",
						Destination: &cmd.all,
					},
					cmd.formatFlag(),
				},
				Action: cmd.runList,
			},
			{
				Name:   "unread",
				Usage:  "Print the unread count",
				Flags:  []cli.Flag{cmd.formatFlag()},
				Action: cmd.runUnread,
			},
			{
				Name:      "read",
				Usage:     "Mark a notification as read",
				UsageText: "hypeflow notify read <id>",
				Action:    cmd.runRead,
			},
			{
				Name:   "read-all",
				Usage:  "Mark every notification as read",
				Action: cmd.runReadAll,
			},
			{
				Name:      "delete",
				Usage:     "Delete a notification",
				UsageText: "hypeflow notify delete <id>",
				Action:    cmd.runDelete,
			},
			{
				Name:   "clear",
				Usage:  "Delete every notification",
				Action: cmd.runClear,
			},
			{
				Name:        "push",
				Usage:       "Add a notification",
				UsageText:   "hypeflow notify push --type market --title T --message M\n   echo '{\"type\":\"grading\",\"title\":\"T\"}' | hypeflow notify push",
				Description: "Adds a notification from flags, or from a JSON record read from --file or stdin when --title is omitted.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "type",
						Usage:       "notification type",
						Value:       string(notify.TypeRecommendation),
						Destination: &cmd.pushType,
					},
					&cli.StringFlag{
						Name:        "title",
						Destination: &cmd.pushTitle,
					},
					&cli.StringFlag{
						Name:        "message",
						Aliases:     []string{"m"},
						Destination: &cmd.pushMessage,
					},
					&cli.BoolFlag{
						Name:        "urgent",
						Destination: &cmd.pushUrgent,
					},
					&cli.StringFlag{
						Name:        "action",
						Usage:       "UI action name, e.g. view_card",
						Destination: &cmd.pushAction,
					},
					cmd.pushReader.Flag(),
				},
				Action: cmd.runPush,
			},
			{
				Name:   "toggle-sound",
				Usage:  "Toggle the notification sound",
				Action: cmd.runToggleSound,
			},
			{
				Name:   "enable",
				Usage:  "Enable the random notification generator",
				Action: cmd.runEnable,
			},
			{
				Name:   "disable",
				Usage:  "Disable the random notification generator",
				Action: cmd.runDisable,
			},
		},
	})
	return app
}

func (cmd *NotifyCmd) runList(ctx context.Context, c *cli.Command) error {
	limit := cmd.limit
	if cmd.all {
		limit = notify.MaxRecords
	}
	records := cmd.app.Notifications.Notifications(limit)

	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, records)
	}

	p := printer.Ctx(ctx)
	if len(records) == 0 {
		p.Infof("No notifications")
		return nil
	}

	p.Printf("%s", renderTable(p, notificationHeaders, notificationRows(time.Now(), records)))
	p.Mutedf("%d unread", cmd.app.Notifications.UnreadCount())
	return nil
}

func (cmd *NotifyCmd) runUnread(ctx context.Context, c *cli.Command) error {
	n := cmd.app.Notifications.UnreadCount()
	if cmd.format == "json" {
		return iojson.Write(c.Root().Writer, map[string]int{"unread": n})
	}
	printer.Ctx(ctx).Printf("%d", n)
	return nil
}

func parseID(c *cli.Command) (int64, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, fmt.Errorf("notification id is required")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid notification id %q", arg)
	}
	return id, nil
}

func (cmd *NotifyCmd) runRead(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	if !cmd.app.Notifications.MarkAsRead(ctx, id) {
		p.Warnf("Notification %d not found", id)
		return nil
	}
	p.Successf("Marked %d as read", id)
	return nil
}

func (cmd *NotifyCmd) runReadAll(ctx context.Context, _ *cli.Command) error {
	cmd.app.Notifications.MarkAllAsRead(ctx)
	printer.Ctx(ctx).Successf("All notifications marked as read")
	return nil
}

func (cmd *NotifyCmd) runDelete(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	if !cmd.app.Notifications.DeleteNotification(ctx, id) {
		p.Warnf("Notification %d not found", id)
		return nil
	}
	p.Successf("Deleted %d", id)
	return nil
}

func (cmd *NotifyCmd) runClear(ctx context.Context, _ *cli.Command) error {
	cmd.app.Notifications.ClearAll(ctx)
	printer.Ctx(ctx).Successf("Notification history cleared")
	return nil
}

func (cmd *NotifyCmd) buildRecord() (notify.Record, error) {
	if cmd.pushTitle == "" {
		r, err := cmd.pushReader.Read()
		if err != nil {
			return notify.Record{}, err
		}
		if r.Type == "" {
			r.Type = notify.TypeRecommendation
		}
		if !r.Type.Valid() {
			return notify.Record{}, fmt.Errorf("unknown notification type %q", r.Type)
		}
		return r, nil
	}

	typ, err := notify.ParseType(cmd.pushType)
	if err != nil {
		return notify.Record{}, err
	}
	return notify.Record{
		Type:    typ,
		Title:   cmd.pushTitle,
		Message: cmd.pushMessage,
		Urgent:  cmd.pushUrgent,
		Action:  cmd.pushAction,
	}, nil
}

func (cmd *NotifyCmd) runPush(ctx context.Context, _ *cli.Command) error {
	r, err := cmd.buildRecord()
	if err != nil {
		return err
	}

	cmd.app.Notifications.AddNotification(ctx, r)
	added := cmd.app.Notifications.Notifications(1)[0]
	printer.Ctx(ctx).Successf("Added notification %d", added.ID)
	return nil
}

func (cmd *NotifyCmd) runToggleSound(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)
	on := cmd.app.Notifications.ToggleSound(ctx)

	state := "off"
	if on {
		state = "on"
	}
	p.Successf("Sound %s", state)
	if on && !cmd.app.Notifications.SoundAvailable() {
		p.Mutedf("no terminal detected; sound will play in interactive sessions")
	}
	return nil
}

func (cmd *NotifyCmd) runEnable(ctx context.Context, _ *cli.Command) error {
	cmd.app.Notifications.Enable(ctx)
	printer.Ctx(ctx).Successf("Random notifications enabled")
	return nil
}

func (cmd *NotifyCmd) runDisable(ctx context.Context, _ *cli.Command) error {
	cmd.app.Notifications.Disable(ctx)
	printer.Ctx(ctx).Successf("Random notifications disabled")
	return nil
}
