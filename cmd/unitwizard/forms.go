package main

import (
	"github.com/artpar/unitwizard/core/formatter"
	"github.com/spf13/cobra"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "List detected quantity forms",
	Long: `List the forms this build detected, whether each is loaded and able
to parse text, and which are the configured defaults.

Examples:
  unitwizard forms
  unitwizard forms -o json`,
	RunE: runForms,
}

func init() {
	rootCmd.AddCommand(formsCmd)
}

func runForms(cmd *cobra.Command, args []string) error {
	out, err := outputFormatter()
	if err != nil {
		return err
	}
	w, _, err := loadWizard(nil)
	if err != nil {
		return err
	}
	st := w.State()

	var records []formatter.Record
	for _, tag := range w.Available() {
		f, loaded := w.Forms().Get(tag)
		records = append(records, formatter.Record{
			"form":           tag,
			"loaded":         loaded,
			"parser":         loaded && f.HasParser(),
			"default_form":   tag == st.DefaultForm,
			"default_parser": tag == st.DefaultParser,
		})
	}
	return out.FormatList(cmd.OutOrStdout(), "forms", records, formatter.FormatOptions{
		Columns: []string{"form", "loaded", "parser", "default_form", "default_parser"},
	})
}
