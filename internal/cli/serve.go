package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-predictform/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction form over HTTP",
	Long: `Serve renders the form as a web page and exposes a JSON API over the
same per-session state.

Example:
  predictform serve --addr :8080 --api http://localhost:5000
  PREDICT_API=https://predict.example.com predictform serve --policy single-flight`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("addr", "", "listen address (default :8080)")
	flags.String("policy", "", "in-flight policy: latest-wins, cancel-stale, single-flight")
	flags.String("variant", "", "theme variant (e.g. dark)")
	flags.String("templates", "", "directory overriding the embedded page templates")

	_ = viper.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = viper.BindPFlag("submission.policy", flags.Lookup("policy"))
	_ = viper.BindPFlag("theme.variant", flags.Lookup("variant"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	applyFlag(cmd, "templates", "theme.templates_dir")
	cfg, err := loadConfig(stderrOf(cmd))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, stderrOf(cmd), true)
	if err != nil {
		return err
	}
	form, err := a.orch.Form(ctx)
	if err != nil {
		return err
	}
	page, err := a.orch.Renderer("vanilla")
	if err != nil {
		return err
	}

	srv, err := web.New(cfg.Server.Addr, form, a.orch.NewController, page,
		web.WithLogger(a.logger),
		web.WithSessionTTL(cfg.Server.SessionTTL),
		web.WithSettle(cfg.Server.Settle),
	)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.logger.Info("predictform: listening on %s", cfg.Server.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("predictform: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
