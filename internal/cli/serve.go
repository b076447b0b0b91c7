package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/billaudit/internal/catalog"
	"github.com/ppiankov/billaudit/internal/pipeline"
	"github.com/ppiankov/billaudit/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the audit over HTTP",
	Long: `Serve starts an HTTP endpoint that audits uploaded statements:

  GET  /health       liveness probe
  GET  /v1/catalog   active concepts and rules
  POST /v1/audits    multipart upload (field "files"), ?format=json|csv|xlsx

Nothing is stored: uploads are audited in memory and discarded.

Example:
  billaudit serve --addr :8080
  curl -F files=@a.pdf -F files=@b.pdf 'localhost:8080/v1/audits?format=csv'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Int("max-conns", 0, "maximum simultaneous connections")
	serveCmd.Flags().Float64("rps", 0, "upload requests per second allowed per client")
	serveCmd.Flags().Int("burst", 0, "upload burst size per client")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_conns", serveCmd.Flags().Lookup("max-conns"))
	_ = viper.BindPFlag("server.requests_per_second", serveCmd.Flags().Lookup("rps"))
	_ = viper.BindPFlag("server.burst_size", serveCmd.Flags().Lookup("burst"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	p, err := pipeline.NewPipeline(cfg, cat, pipeline.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, p, cfg.Concurrency.Workers, slog.Default())
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
