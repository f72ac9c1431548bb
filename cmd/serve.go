package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Tokenizer server",
	Long: `Starts the HTTP server exposing the token endpoints.
Send SIGHUP to reload the policy rules from the config file without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		log.Info().Msg("Initializing components...")
		comp, err := f.Build()
		if err != nil {
			return err
		}
		defer func() {
			if err := comp.auditor.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close auditor")
			}
		}()

		log.Info().
			Str("verifier", comp.verifier.Type()).
			Int("policy_rules", comp.policy.GetEngine().Len()).
			Bool("audit", comp.cfg.Audit.Enabled).
			Msg("Components ready")

		var opts []api.Option
		if len(comp.cfg.Admin.Subjects) > 0 {
			opts = append(opts, api.WithAdmin(comp.issuer, comp.cfg.Admin.Subjects))
		}
		srv := api.NewServer(comp.Workflow(), comp.auditor, opts...)

		server := &http.Server{
			Addr:              addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(quit)

	loop:
		for {
			select {
			case err := <-errCh:
				return fmt.Errorf("server crashed: %w", err)
			case sig := <-quit:
				if sig != syscall.SIGHUP {
					break loop
				}
				reloadPolicy(comp)
			}
		}
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

// reloadPolicy re-reads the config file and swaps in the new policy rules.
// Other settings require a restart. On error the current rules stay active.
func reloadPolicy(comp *Components) {
	log.Info().Msg("Reloading policy rules...")
	cfg, err := f.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("failed to reload config, keeping current rules")
		return
	}
	if err := comp.policy.Update(cfg.Policy.Rules); err != nil {
		log.Error().Err(err).Msg("failed to compile policy rules, keeping current rules")
		return
	}
	log.Info().Int("policy_rules", len(cfg.Policy.Rules)).Msg("Policy rules reloaded")
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}
