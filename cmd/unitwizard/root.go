package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/artpar/unitwizard/adapters/backend"
	"github.com/artpar/unitwizard/app"
	"github.com/artpar/unitwizard/bootstrap"
	"github.com/artpar/unitwizard/config"
	"github.com/artpar/unitwizard/core/formatter"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "unitwizard",
	Short: "Convert and standardize physical quantities across unit libraries",
	Long: `unitwizard converts quantities and units between representations
(text, measure, gonum) and expresses them in a configured set of standard
units.

Quick start:
  unitwizard convert "5 nm" --to angstrom
  unitwizard standardize "2 m/s" --standards nm,ps
  unitwizard serve

Configuration:
  unitwizard forms     # List detected forms
  unitwizard validate  # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "unitwizard.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log wizard operations to stderr")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: "+strings.Join(formatter.List(), ", "))
}

// outputFormatter returns the formatter selected by --output.
func outputFormatter() (formatter.Formatter, error) {
	f, ok := formatter.Get(outputFormat)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q, want one of: %s", outputFormat, strings.Join(formatter.List(), ", "))
	}
	return f, nil
}

// loadWizard builds a wizard from the configuration file, falling back to
// UNITWIZARD_* environment variables when the file does not exist.
// Standards given on the command line replace the configured ones.
func loadWizard(standards []string) (*app.Wizard, *config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if len(standards) > 0 {
		cfg.Standards.Units = standards
		cfg.Standards.File = ""
	}

	logger := zerolog.Nop()
	if verbose {
		logger = bootstrap.SetupLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	}

	w, err := app.New(app.Options{Catalog: backend.Catalog(), Forms: cfg.Forms, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	if err := bootstrap.Apply(w, cfg); err != nil {
		return nil, nil, err
	}
	return w, cfg, nil
}

// parseDims parses "[L]=1,[T]=-1" into a dimension vector.
func parseDims(s string) (dimension.Vector, error) {
	m := map[string]float64{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sym, exp, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid dimension %q, want SYMBOL=EXPONENT", part)
		}
		e, err := strconv.ParseFloat(strings.TrimSpace(exp), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid exponent in %q: %w", part, err)
		}
		m[strings.TrimSpace(sym)] = e
	}
	return dimension.FromStrings(m)
}
