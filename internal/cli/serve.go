package cli

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/cub-fuel-log/internal/server"
	appsync "github.com/nhle/cub-fuel-log/internal/sync"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Listen host (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "Listen port (overrides server.port)")
	serveCmd.Flags().String("origin", "", "Serve the shell from this origin through the offline cache (overrides shell.origin)")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP gateway",
	Long: `Serve the JSON API and the browser application shell. With an origin
configured, the shell is fetched from it through the offline cache
controller, so the browser keeps working when the origin is unreachable.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if origin, _ := cmd.Flags().GetString("origin"); origin != "" {
		cfg.Shell.Origin = origin
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.NewServer(svc)
	if metrics, _ := cmd.Flags().GetBool("metrics"); metrics {
		srv.EnableMetrics()
	}

	if cfg.Shell.Origin != "" {
		origin, err := shellOrigin(cfg)
		if err != nil {
			return err
		}
		reg := newRegistration(cfg, origin, st)
		srv.SetShellOrigin(origin, reg)

		monitor := appsync.New(reg, refreshInterval(cfg))
		go monitor.Run(ctx)
		go logStatus(ctx, monitor)
		log.Printf("gateway: shell origin %s (cache %s)", origin, cfg.Offline.CacheName)
	}

	return srv.Run(ctx, cfg.Server.Addr())
}

// logStatus reports failed checks until ctx is done.
func logStatus(ctx context.Context, monitor *appsync.Monitor) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-monitor.Results():
			if msg.Status.Error != nil {
				log.Printf("gateway: shell %s: %v", msg.Status.State, msg.Status.Error)
			}
		}
	}
}
