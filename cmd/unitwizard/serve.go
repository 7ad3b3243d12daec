package main

import (
	"os"

	apihttp "github.com/artpar/unitwizard/adapters/http"
	"github.com/artpar/unitwizard/bootstrap"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the unitwizard HTTP API.

The server will:
  - Load configuration from unitwizard.yaml (or --config)
  - Or load configuration from UNITWIZARD_* environment variables
  - Serve /v1/convert, /v1/standardize, /v1/check and /v1/compare
  - Reload standards and defaults when the config file changes

Environment variables (for Docker deployments):
  UNITWIZARD_STANDARDS      - Comma separated standard units
  UNITWIZARD_SERVER_PORT    - Server port (default: 8089)
  UNITWIZARD_LOG_LEVEL      - Log level: debug, info, warn, error
  UNITWIZARD_METRICS_ENABLED - Expose Prometheus metrics

Examples:
  unitwizard serve
  unitwizard serve --config /etc/unitwizard/config.yaml
  unitwizard serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	apihttp.BuildVersion = version

	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var a *bootstrap.App
	var err error
	if hasConfigFile && hotReload {
		// Hot reload only works with config file
		a, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		a, err = bootstrap.New(cfgFile)
	}
	if err != nil {
		return err
	}

	// Run (blocks until shutdown)
	return a.Run()
}
