package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-predictform/pkg/renderers/tui"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Fill in the form interactively in the terminal",
	Long: `Ask prompts for each measurement, submits them and prints the
diagnosis. Missing fields are asked again; after a result you can submit the
same values again or edit them.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("policy", "", "in-flight policy: latest-wins, cancel-stale, single-flight")
}

func runAsk(cmd *cobra.Command, _ []string) error {
	applyFlag(cmd, "policy", "submission.policy")
	cfg, err := loadConfig(stderrOf(cmd))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, stderrOf(cmd), false)
	if err != nil {
		return err
	}
	form, err := a.orch.Form(ctx)
	if err != nil {
		return err
	}
	ctrl, err := a.orch.NewController()
	if err != nil {
		return err
	}

	session, err := tui.New(ctrl, form,
		tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
		tui.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	if _, err := session.Run(ctx); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			return nil
		}
		return err
	}
	return nil
}
