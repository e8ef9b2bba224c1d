package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/press/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [tasks...]",
		Short: "Run the named tasks concurrently",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			return c.app.Run(cmd.Context(), args)
		},
	}
}

type shortcut struct {
	task  string
	short string
}

var shortcuts = []shortcut{
	{app.TaskBuild, "Build the site with the development profile"},
	{app.TaskBuildProd, "Build the site with the production profile"},
	{app.TaskBuildAssets, "Build stylesheets, scripts and images"},
	{app.TaskDeploy, "Production build followed by all asset transforms"},
}

func (c *CLI) newShortcutCmd(s shortcut) *cobra.Command {
	return &cobra.Command{
		Use:   s.task,
		Short: s.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Run(cmd.Context(), []string{s.task})
		},
	}
}
