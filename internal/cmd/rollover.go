package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/jobs"
)

func newRolloverCommand(root *rootOptions) *cobra.Command {
	var days int
	c := &cobra.Command{
		Use:   "rollover",
		Short: "Materialize and pre-plan today and the following days",
		Long: `Run the daily rollover once: bring stored instances in line with the
current definitions and plan each day. The tui and watch commands also run
it on a schedule when rollover is enabled in the config.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := root.open(c)
			if err != nil {
				return err
			}
			defer a.Close()

			reports, runErr := a.rollover(jobs.WithLookahead(days)).RunOnce(c.Context())
			out := c.OutOrStdout()
			for _, r := range reports {
				fmt.Fprintf(out, "%s: +%d -%d instances, %d blocks, %d conflicts", r.Date, r.Created, r.Dropped, r.Blocks, r.Conflicts)
				if r.Impossible {
					fmt.Fprint(out, ", impossible")
				}
				fmt.Fprintln(out)
			}
			return runErr
		},
	}
	c.Flags().IntVar(&days, "days", 0, "also prepare this many following days")
	return c
}
