package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/config"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the dayplan command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "dayplan",
		Short: "Plan each day from recurring task definitions",
		Long: `dayplan expands recurring task definitions into daily instances, orders
them by their dependencies and places them on a timeline between your wake
and sleep times.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "config file")

	root.AddCommand(
		newPlanCommand(opts),
		newDueCommand(opts),
		newPreviewCommand(opts),
		newImportCommand(opts),
		newMigrateCommand(opts),
		newRolloverCommand(opts),
		newWatchCommand(opts),
		newTUICommand(opts),
	)
	return root
}

// ExecuteContext runs the command tree with args from the command line.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) open(c *cobra.Command) (*app, error) {
	return openApp(o.configPath, c.ErrOrStderr(), openOptions{})
}
