// Package cli wires configuration, storage and the presentation layers
// into the cub command tree.
package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/cub-fuel-log/internal/app"
	"github.com/nhle/cub-fuel-log/internal/logbook"
	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/internal/offline"
	"github.com/nhle/cub-fuel-log/internal/store"
	appsync "github.com/nhle/cub-fuel-log/internal/sync"
)

var (
	configPath string
	dbPath     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Override database.path")
}

var rootCmd = &cobra.Command{
	Use:   "cub",
	Short: "Fuel logbook for a small motorcycle",
	Long: `cub records refuelling events (date, odometer, fuel, memo) and derives
distance and fuel efficiency for every interval. Run without a subcommand
to open the terminal UI.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// ─── Shared wiring ──────────────────────────────────────────────────────────

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

// openService opens the record store and loads the log.
func openService(ctx context.Context, cfg *model.AppConfig) (*logbook.Service, *store.SQLiteStore, error) {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	svc := logbook.New(st)
	if err := svc.Load(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return svc, st, nil
}

// shellOrigin parses shell.origin as the base directory of the shell.
func shellOrigin(cfg *model.AppConfig) (*url.URL, error) {
	origin, err := url.Parse(cfg.Shell.Origin)
	if err != nil {
		return nil, fmt.Errorf("parsing shell.origin: %w", err)
	}
	if !origin.IsAbs() || origin.Host == "" {
		return nil, fmt.Errorf("shell.origin %q must be an absolute URL", cfg.Shell.Origin)
	}
	if !strings.HasSuffix(origin.Path, "/") {
		origin.Path += "/"
	}
	return origin, nil
}

// newRegistration builds the offline registration for the configured
// origin, persisting cache generations in st.
func newRegistration(cfg *model.AppConfig, origin *url.URL, st *store.SQLiteStore) *offline.Registration {
	return offline.NewRegistration(offline.Config{
		CacheName:     cfg.Offline.CacheName,
		Scope:         origin.String(),
		Precache:      cfg.Offline.Precache,
		ShellDocument: cfg.Offline.ShellDocument,
	}, st, http.DefaultTransport)
}

func refreshInterval(cfg *model.AppConfig) time.Duration {
	return time.Duration(cfg.Offline.RefreshIntervalSec) * time.Second
}

// ─── TUI ────────────────────────────────────────────────────────────────────

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logPath := filepath.Join(filepath.Dir(configPath), "cub.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := tea.LogToFile(logPath, "cub")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	svc, st, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var monitor *appsync.Monitor
	if cfg.Shell.Origin != "" {
		origin, err := shellOrigin(cfg)
		if err != nil {
			return err
		}
		monitor = appsync.New(newRegistration(cfg, origin, st), refreshInterval(cfg))
		defer monitor.Stop()
	}

	m := app.New(svc, monitor, app.ParseView(cfg.Display.DefaultTab))
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	log.Printf("cub: exited")
	return nil
}
