package cmd

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/config"
	"github.com/sandeepkv93/dayplan/internal/jobs"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/update"
)

func newTUICommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit days interactively",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			// Console logs would draw over the screen; only a log file is kept.
			a, err := openApp(root.configPath, io.Discard, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			return runTUI(c, a)
		},
	}
}

func runTUI(c *cobra.Command, a *app) error {
	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()

	alarm := scheduler.NewAlarm(a.cfg.Alarm.Buffer)
	alarm.Start()
	defer alarm.Stop()

	deps := update.Deps{
		Planner:      a.planner,
		Source:       a.provider,
		Recurrence:   a.rec,
		Actions:      a.actions,
		Alarm:        alarm,
		Location:     a.loc,
		Now:          a.now,
		PreviewCount: a.cfg.PreviewCount,
		Desktop:      a.cfg.Alarm.Desktop,
	}
	if deps.Desktop {
		deps.Notifier = update.ExecDesktopNotifier{}
	}
	program := tea.NewProgram(update.NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))

	reload := func() { go program.Send(update.ReloadMsg{}) }
	stopRollover, err := a.startRollover(ctx, func([]jobs.DayReport) { reload() })
	if err != nil {
		return err
	}
	defer stopRollover()
	a.watchConfig(ctx, func(config.Config) { reload() })

	_, err = program.Run()
	return err
}
