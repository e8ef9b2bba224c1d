package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/press/internal/app"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"default"},
		Short:   "Build everything, serve the site and rebuild on change",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			noLiveReload, _ := cmd.Flags().GetBool("no-livereload")

			return c.app.Serve(cmd.Context(), app.ServeOptions{
				Host:         host,
				Port:         port,
				NoLiveReload: noLiveReload,
			})
		},
	}
	cmd.Flags().String("host", "", "Interface to bind (defaults to the configured host)")
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (defaults to the configured port)")
	cmd.Flags().Bool("no-livereload", false, "Disable browser live reload")
	return cmd
}
