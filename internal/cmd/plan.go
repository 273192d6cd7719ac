package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/views"
)

type planOptions struct {
	json    bool
	report  bool
	fromNow bool
	noColor bool
}

func newPlanCommand(root *rootOptions) *cobra.Command {
	opts := &planOptions{}
	c := &cobra.Command{
		Use:   "plan [date]",
		Short: "Print the schedule for a day",
		Long: `Print the schedule for a day. The date is YYYY-MM-DD, today, tomorrow,
yesterday or an offset such as +2. It defaults to today.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runPlan(c, root, opts, args)
		},
	}
	c.Flags().BoolVar(&opts.json, "json", false, "print the schedule result as JSON")
	c.Flags().BoolVar(&opts.report, "report", false, "print a markdown report")
	c.Flags().BoolVar(&opts.fromNow, "from-now", false, "do not place flexible tasks before the current time")
	c.Flags().BoolVar(&opts.noColor, "no-color", false, "plain timeline output")
	return c
}

func runPlan(c *cobra.Command, root *rootOptions, opts *planOptions, args []string) error {
	a, err := root.open(c)
	if err != nil {
		return err
	}
	defer a.Close()

	today := a.today()
	date, err := resolveDay(args, today)
	if err != nil {
		return err
	}
	notBefore, now := 0, -1
	if date == today {
		now = a.nowMinutes()
		if opts.fromNow {
			notBefore = now
		}
	}

	ctx := c.Context()
	res, err := a.planner.Plan(ctx, date, notBefore)
	if err != nil {
		return err
	}
	sleep, err := a.provider.SleepSchedule(ctx, date)
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	switch {
	case opts.json:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case opts.report && opts.noColor:
		_, err = fmt.Fprint(out, views.ReportMarkdown(res, sleep))
		return err
	case opts.report:
		_, err = fmt.Fprint(out, views.RenderReport(res, sleep))
		return err
	}
	fmt.Fprintf(out, "%s %s\n%s\n\n", date, date.Weekday(), views.RenderSummary(res))
	fmt.Fprintln(out, views.RenderTimeline(res, views.TimelineOptions{Sleep: sleep, Now: now, NoColor: opts.noColor}))
	if len(res.Conflicts) > 0 {
		fmt.Fprintf(out, "\n%d conflict(s):\n", len(res.Conflicts))
		for _, cf := range res.Conflicts {
			fmt.Fprintf(out, "- [%s] %s %s", cf.Severity, cf.Kind, strings.Join(cf.InstanceIDs, ", "))
			if cf.Message != "" {
				fmt.Fprintf(out, ": %s", cf.Message)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
