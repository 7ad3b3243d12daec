package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the unitwizard configuration file.

Checks:
  - YAML syntax is valid
  - Forms, defaults and dimension order are consistent
  - Every standard unit parses and the registries are coherent

Examples:
  unitwizard validate
  unitwizard validate --config /etc/unitwizard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	// Load the config and push it into a wizard
	w, cfg, err := loadWizard(nil)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	st := w.State()
	fmt.Fprintf(out, "  %s Forms: %s\n", checkMark, strings.Join(w.Forms().Names(), ", "))
	fmt.Fprintf(out, "  %s Default form: %s, parser: %s\n", checkMark, st.DefaultForm, st.DefaultParser)
	fmt.Fprintf(out, "  %s Standards: %d (%d fundamental, %d combinations, %d adimensional)\n",
		checkMark, len(st.Standards), len(st.Fundamental), len(st.Combinations), len(st.Adimensional))
	fmt.Fprintf(out, "  %s Server: %s:%d\n", checkMark, cfg.Server.Host, cfg.Server.Port)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}
