package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "resolveit",
		Short: "Session client for the ResolveIt complaint service",
		Long: `resolveit keeps a signed-in session against the ResolveIt complaint
service and decides which pages a user may open.

  serve      run the session BFF for browsers
  upstream   run a development copy of the service's auth endpoints
  login, register, whoami, refresh, logout
             manage this terminal's own session`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&app.envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(
		serveCmd(app),
		upstreamCmd(app),
		loginCmd(app),
		registerCmd(app),
		whoamiCmd(app),
		refreshCmd(app),
		logoutCmd(app),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
