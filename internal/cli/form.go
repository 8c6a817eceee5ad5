package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-predictform/pkg/orchestrator"
)

var (
	formRenderer string
	formOutput   string
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Print the form built from the prediction contract",
	Long: `Form renders a fresh form with the chosen renderer: "vanilla" prints the
standalone HTML page, "json" prints the page view model.

Example:
  predictform form > form.html
  predictform form --renderer json`,
	RunE: runForm,
}

func init() {
	rootCmd.AddCommand(formCmd)
	formCmd.Flags().StringVarP(&formRenderer, "renderer", "r", "vanilla", "output renderer")
	formCmd.Flags().StringVarP(&formOutput, "output", "o", "", "output file (stdout if empty)")
	formCmd.Flags().String("templates", "", "directory overriding the embedded page templates")
}

func runForm(cmd *cobra.Command, _ []string) error {
	applyFlag(cmd, "templates", "theme.templates_dir")
	cfg, err := loadConfig(stderrOf(cmd))
	if err != nil {
		return err
	}
	a, err := buildApp(cmd.Context(), cfg, stderrOf(cmd), false)
	if err != nil {
		return err
	}

	if _, err := a.orch.Renderer(formRenderer); err != nil {
		return fmt.Errorf("unknown renderer %q (available: %s)", formRenderer, strings.Join(a.orch.Registry().List(), ", "))
	}
	out, err := a.orch.Generate(cmd.Context(), orchestrator.Request{Renderer: formRenderer})
	if err != nil {
		return err
	}
	if formOutput != "" {
		if err := os.WriteFile(formOutput, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", formOutput)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
