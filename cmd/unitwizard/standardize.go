package main

import (
	"fmt"

	"github.com/artpar/unitwizard/app"
	"github.com/artpar/unitwizard/core/form"
	"github.com/spf13/cobra"
)

var standardizeCmd = &cobra.Command{
	Use:   "standardize [QUANTITY]",
	Short: "Express a quantity in standard units",
	Long: `Express a quantity in the configured standard units, or print the
standard unit of a dimensionality.

Examples:
  unitwizard standardize "2 m/s" --standards nm,ps
  unitwizard standardize --dims "[L]=1,[T]=-1" --standards nm,ps`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStandardize,
}

var (
	standardizeDims      string
	standardizeStandards []string
)

func init() {
	rootCmd.AddCommand(standardizeCmd)

	standardizeCmd.Flags().StringVar(&standardizeDims, "dims", "", "dimensionality, e.g. [L]=1,[T]=-1")
	standardizeCmd.Flags().StringSliceVar(&standardizeStandards, "standards", nil, "standard units, replacing the configured ones")
}

func runStandardize(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && standardizeDims == "" {
		return fmt.Errorf("give a quantity or --dims")
	}
	w, _, err := loadWizard(standardizeStandards)
	if err != nil {
		return err
	}

	var out any
	if len(args) == 1 {
		out, err = w.Standardize(args[0], form.Text)
	} else {
		dims, derr := parseDims(standardizeDims)
		if derr != nil {
			return derr
		}
		out, err = w.StandardUnits(app.StandardOpts{Dims: dims, Form: form.Text})
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
