package main

import (
	"fmt"

	"github.com/artpar/unitwizard/app"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check QUANTITY",
	Short: "Check a quantity against constraints",
	Long: `Check that the input is a quantity or unit and satisfies the given
constraints. Exits non-zero when a constraint fails.

Examples:
  unitwizard check "5 nm" --dims "[L]=1"
  unitwizard check "5 nm" --unit nanometer`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var (
	checkDims string
	checkUnit string
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkDims, "dims", "", "required dimensionality, e.g. [L]=1,[T]=-1")
	checkCmd.Flags().StringVar(&checkUnit, "unit", "", "required unit")
}

func runCheck(cmd *cobra.Command, args []string) error {
	w, _, err := loadWizard(nil)
	if err != nil {
		return err
	}

	var opts app.CheckOpts
	if checkDims != "" {
		if opts.Dimensionality, err = parseDims(checkDims); err != nil {
			return err
		}
	}
	if checkUnit != "" {
		opts.Unit = checkUnit
	}

	ok, err := w.Check(args[0], opts)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", crossMark, args[0])
		return fmt.Errorf("check failed: %s", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", checkMark, args[0])
	return nil
}
