package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/cub-fuel-log/internal/model"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configInitCmd.Flags().String("origin", "", "Set shell.origin")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the cub configuration file",
}

// ─── config init ────────────────────────────────────────────────────────────

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if origin, _ := cmd.Flags().GetString("origin"); origin != "" {
		cfg.Shell.Origin = origin
		if _, err := shellOrigin(cfg); err != nil {
			return err
		}
	}

	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
	return nil
}

// ─── config show ────────────────────────────────────────────────────────────

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "config                 %s\n", configPath)
	fmt.Fprintf(w, "database.path          %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "server                 %s\n", cfg.Server.Addr())
	fmt.Fprintf(w, "shell.origin           %s\n", valueOr(cfg.Shell.Origin, "(embedded)"))
	fmt.Fprintf(w, "offline.cache_name     %s\n", cfg.Offline.CacheName)
	fmt.Fprintf(w, "offline.refresh        %ds\n", cfg.Offline.RefreshIntervalSec)
	fmt.Fprintf(w, "display.default_tab    %s\n", cfg.Display.DefaultTab)
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
