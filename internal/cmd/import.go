package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/importer"
	"github.com/sandeepkv93/dayplan/internal/logging"
)

func newImportCommand(root *rootOptions) *cobra.Command {
	var dryRun bool
	c := &cobra.Command{
		Use:   "import <file>",
		Short: "Create or update task definitions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := root.open(c)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := importer.LoadFile(args[0])
			if err != nil {
				return err
			}
			imp := importer.New(a.repo,
				importer.WithDryRun(dryRun),
				importer.WithLogger(logging.Component(a.log, "import")),
			)
			res, err := imp.Apply(c.Context(), doc)
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing written")
			}
			printIDs(c, "created", res.Created)
			printIDs(c, "updated", res.Updated)
			printIDs(c, "unchanged", res.Unchanged)
			if res.SleepUpdated {
				fmt.Fprintln(out, "default sleep schedule updated")
			}
			if !res.Changed() {
				fmt.Fprintln(out, "nothing to change")
			}
			return nil
		},
	}
	c.Flags().BoolVar(&dryRun, "dry-run", false, "validate and report without writing")
	return c
}

func printIDs(c *cobra.Command, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(c.OutOrStdout(), "%s %d: %s\n", label, len(ids), strings.Join(ids, ", "))
}
