package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

func newDueCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "due [date]",
		Short: "List the definitions that recur on a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := root.open(c)
			if err != nil {
				return err
			}
			defer a.Close()

			date, err := resolveDay(args, a.today())
			if err != nil {
				return err
			}
			defs, err := a.repo.ListDefinitions(c.Context(), storage.DefinitionListFilter{ActiveOnly: true})
			if err != nil {
				return err
			}
			due := a.rec.DueOn(defs, date)

			out := c.OutOrStdout()
			fmt.Fprintf(out, "%s %s: %d due\n", date, date.Weekday(), len(due))
			for _, def := range due {
				fmt.Fprintf(out, "- %-16s %-8s %4s  p%d%s  %s\n",
					def.ID, placement(def), fmt.Sprintf("%dm", def.DurationMinutes), def.Priority, mandatoryFlag(def), def.Title)
			}
			return nil
		},
	}
}

func placement(def model.TaskDefinition) string {
	if def.IsFixed() && def.FixedTime != nil {
		return def.FixedTime.String()
	}
	return string(def.TimeWindow)
}

func mandatoryFlag(def model.TaskDefinition) string {
	var f []string
	if def.IsMandatory {
		f = append(f, "M")
	}
	if def.DependsOn != "" {
		f = append(f, "after "+def.DependsOn)
	}
	if len(f) == 0 {
		return ""
	}
	return " " + strings.Join(f, " ")
}
