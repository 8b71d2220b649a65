// cmd/activity-store/commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"activity-store/internal/api"
	"activity-store/internal/common/config"
	"activity-store/internal/common/logger"
	"activity-store/internal/common/observability"
	"activity-store/pkg/activities"
)

type rootOptions struct {
	configPath string
	dataFile   string
	logLevel   string
}

// deps bundles what every subcommand needs.
type deps struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
	obs    *observability.Observability
	store  *activities.Store
}

func (r *deps) close() {
	r.obs.Shutdown()
	_ = r.zapLog.Sync()
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "activity-store",
		Short:         "Load and save the activities JSON data file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config YAML file (default: search ./configs and .)")
	root.PersistentFlags().StringVar(&opts.dataFile, "data-file", "", "override store.data_file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newLoadCommand(opts),
		newSaveCommand(opts),
		newPathCommand(opts),
		newServeCommand(opts),
	)
	return root
}

func setup(opts *rootOptions) (*deps, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	if opts.dataFile != "" {
		cfg.Store.DataFile = opts.dataFile
	}
	if opts.logLevel != "" {
		if err := config.ValidateLevel(opts.logLevel); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
		cfg.Logging.Level = opts.logLevel
	}

	mode, err := cfg.Store.Mode()
	if err != nil {
		return nil, err
	}

	// CLI output goes to stdout, so logs default to stderr there.
	output := cfg.Logging.Output
	if output == "stdout" {
		output = "stderr"
	}
	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, output)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	store := activities.NewStore(cfg.Store.DataFile, log,
		activities.WithFileMode(mode),
		activities.WithObservability(obs),
	)

	return &deps{cfg: cfg, zapLog: zapLog, log: log, obs: obs, store: store}, nil
}

func newLoadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Print the stored activities as indented JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			list, err := rt.store.LoadRaw(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
}

func newSaveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save [file|-]",
		Short: "Replace the stored activities with a JSON object read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.store.Save(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d activities to %s\n", len(in), rt.store.Path())
			return nil
		},
	}
}

func newPathCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved data file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			fmt.Fprintln(cmd.OutOrStdout(), rt.store.Path())
			return nil
		},
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the activities over HTTP with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()
			if address != "" {
				rt.cfg.Server.Address = address
			}
			return serve(cmd.Context(), rt)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "override server.address")
	return cmd
}

func serve(ctx context.Context, rt *deps) error {
	handler := api.NewHandler(rt.store, rt.log)
	handler.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: rt.cfg.Server.Address, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		rt.zapLog.Info("Activity store server listening", zap.String("address", srv.Addr), zap.String("dataFile", rt.store.Path()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	rt.zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(rt.cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	rt.zapLog.Info("Activity store server stopped gracefully")
	return nil
}

func readInput(cmd *cobra.Command, args []string) (activities.Activities, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	in, err := activities.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("input must be a single JSON object: %w", err)
	}
	return in, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
