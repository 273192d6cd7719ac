package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/config"
	"github.com/sandeepkv93/dayplan/internal/jobs"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/update"
)

func newWatchCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print today's task boundaries as they happen",
		Long: `Plan today and print a line whenever a task starts or ends. The plan is
armed again after the daily rollover and whenever the config file changes.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := root.open(c)
			if err != nil {
				return err
			}
			defer a.Close()
			return runWatch(c, a)
		},
	}
}

func runWatch(c *cobra.Command, a *app) error {
	ctx := c.Context()
	out := c.OutOrStdout()

	alarm := scheduler.NewAlarm(a.cfg.Alarm.Buffer)
	alarm.Start()
	defer alarm.Stop()

	rearm := make(chan struct{}, 1)
	poke := func() {
		select {
		case rearm <- struct{}{}:
		default:
		}
	}
	arm := func() {
		date := a.today()
		res, err := a.planner.Plan(ctx, date, 0)
		if err != nil {
			a.log.Error().Err(err).Str("date", date.String()).Msg("plan failed")
			return
		}
		n, err := alarm.Arm(res, a.now(), a.loc)
		if err != nil {
			a.log.Error().Err(err).Msg("arm alarm")
			return
		}
		fmt.Fprintf(out, "%s: %d upcoming boundaries\n", date, n)
	}

	stopRollover, err := a.startRollover(ctx, func([]jobs.DayReport) { poke() })
	if err != nil {
		return err
	}
	defer stopRollover()
	a.watchConfig(ctx, func(config.Config) { poke() })

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if a.cfg.Alarm.Desktop {
		notifier = update.ExecDesktopNotifier{}
	}

	arm()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rearm:
			arm()
		case ev, ok := <-alarm.C():
			if !ok {
				return nil
			}
			line := fmt.Sprintf("%s %-5s %s", ev.At.In(a.loc).Format("15:04"), ev.Kind, ev.Title)
			fmt.Fprintln(out, line)
			if err := notifier.Send(update.Notification{Title: "dayplan", Body: line, Level: "info"}); err != nil {
				a.log.Debug().Err(err).Msg("desktop notification")
			}
		}
	}
}
