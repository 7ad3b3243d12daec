package main

import (
	"fmt"

	"github.com/artpar/unitwizard/app"
	"github.com/artpar/unitwizard/core/form"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert QUANTITY",
	Short: "Convert a quantity or unit",
	Long: `Convert a quantity or unit given as text and print the result as text.

Examples:
  unitwizard convert "5 nm" --to angstrom
  unitwizard convert "2 kJ/mol" --to J/mol --type value
  unitwizard convert "3 m/s" --standardized --standards nm,ps`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertTo           string
	convertType         string
	convertParser       string
	convertStandardized bool
	convertStandards    []string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertTo, "to", "", "target unit")
	convertCmd.Flags().StringVar(&convertType, "type", "quantity", "output: quantity, unit or value")
	convertCmd.Flags().StringVar(&convertParser, "parser", "", "form used to parse the input (default: configured parser)")
	convertCmd.Flags().BoolVar(&convertStandardized, "standardized", false, "express the result in standard units")
	convertCmd.Flags().StringSliceVar(&convertStandards, "standards", nil, "standard units, replacing the configured ones")
}

func runConvert(cmd *cobra.Command, args []string) error {
	w, _, err := loadWizard(convertStandards)
	if err != nil {
		return err
	}

	var in any = args[0]
	if convertStandardized {
		if in, err = w.Standardize(args[0], form.Text); err != nil {
			return err
		}
	}

	opts := app.ConvertOpts{ToForm: form.Text, Parser: convertParser, ToType: app.ToType(convertType)}
	if convertTo != "" {
		opts.ToUnit = convertTo
	}
	out, err := w.Convert(in, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
