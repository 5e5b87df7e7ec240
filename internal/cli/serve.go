package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/truthledger/internal/pipeline"
	"github.com/ppiankov/truthledger/internal/server"
	"github.com/ppiankov/truthledger/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard",
	Long: `Serve the TruthLedger dashboard.

The page lists every stored claim newest first and refreshes itself.
The sidebar form scrapes and analyzes a list of URLs.

Example:
  truthledger serve
  truthledger serve --addr 127.0.0.1:8080 --db ./ledger.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8501", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := pipeline.NewPipeline(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	srv, err := server.New(cfg.Server, st, p, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	fmt.Fprintf(os.Stderr, "TruthLedger dashboard on %s (database %s)\n", cfg.Server.Addr, cfg.Store.Path)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
