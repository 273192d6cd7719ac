package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/storage"
)

func newPreviewCommand(root *rootOptions) *cobra.Command {
	var (
		count int
		from  string
	)
	c := &cobra.Command{
		Use:   "preview <template>",
		Short: "List the next occurrences of a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := root.open(c)
			if err != nil {
				return err
			}
			defer a.Close()

			if count <= 0 {
				count = a.cfg.PreviewCount
			}
			var fromArgs []string
			if from != "" {
				fromArgs = []string{from}
			}
			start, err := resolveDay(fromArgs, a.today())
			if err != nil {
				return err
			}
			def, err := a.repo.GetDefinition(c.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no definition %q", args[0])
			}
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			dates := a.rec.Preview(def, start, count)
			if len(dates) == 0 {
				fmt.Fprintf(out, "%s does not occur on or after %s\n", def.ID, start)
				return nil
			}
			for _, d := range dates {
				fmt.Fprintf(out, "%s %s\n", d, d.Weekday().String()[:3])
			}
			return nil
		},
	}
	c.Flags().IntVarP(&count, "count", "n", 0, "number of occurrences (default from config)")
	c.Flags().StringVar(&from, "from", "", "first date to consider (default today)")
	return c
}
