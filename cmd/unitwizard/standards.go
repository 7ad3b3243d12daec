package main

import (
	"github.com/artpar/unitwizard/core/formatter"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/spf13/cobra"
)

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "List the standard units and their registries",
	Long: `List the configured standard units, grouped by the registry each one
landed in: adimensional, fundamental (one base dimension), combination
(several base dimensions).

Examples:
  unitwizard standards
  unitwizard standards --standards nm,ps,kJ/mol -o yaml`,
	RunE: runStandards,
}

var standardsUnits []string

func init() {
	rootCmd.AddCommand(standardsCmd)

	standardsCmd.Flags().StringSliceVar(&standardsUnits, "standards", nil, "standard units, replacing the configured ones")
}

func runStandards(cmd *cobra.Command, args []string) error {
	out, err := outputFormatter()
	if err != nil {
		return err
	}
	w, _, err := loadWizard(standardsUnits)
	if err != nil {
		return err
	}
	st := w.State()

	var records []formatter.Record
	for _, u := range st.Adimensional {
		records = append(records, formatter.Record{"unit": u, "registry": "adimensional", "dimensionality": "dimensionless"})
	}
	add := func(registry string, stds []kernel.Standard) {
		for _, s := range stds {
			records = append(records, formatter.Record{"unit": s.Unit, "registry": registry, "dimensionality": s.Dims.String()})
		}
	}
	add("fundamental", st.Fundamental)
	add("combination", st.Combinations)
	add("tentative", st.Tentative)

	return out.FormatList(cmd.OutOrStdout(), "standards", records, formatter.FormatOptions{
		Columns: []string{"unit", "registry", "dimensionality"},
	})
}
