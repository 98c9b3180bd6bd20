package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/netcloak/internal/config"
	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/spf13/cobra"
)

// config command flags
var (
	configInitForce  bool
	configInitGlobal bool
)

// configCmd groups config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the netcloak config file",
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration netcloak would run with: file values merged over
defaults, with NETCLOAK_* environment overrides applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dirFlag != "" {
			cfg.Discovery.Dir = dirFlag
		}
		return configShowCommand(cfg, path, cmd.OutOrStdout())
	},
}

// configInitCmd writes a config file with the defaults
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with the defaults",
	Long: `Write .netcloak.yaml in the current directory (or the global config with
--global) containing every setting at its default value.

Examples:
  netcloak config init
  netcloak config init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFileName
		if configInitGlobal {
			home, err := os.UserHomeDir()
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Couldn't find your home directory",
					"Set HOME or create the config without --global.")
			}
			path = filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile)
		}
		return configInitCommand(path, configInitForce, cmd.OutOrStdout())
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write ~/.config/netcloak/config.yaml")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func configShowCommand(cfg *config.Config, path string, out io.Writer) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	source := path
	if source == "" {
		source = "defaults (no config file found)"
	}
	fmt.Fprintf(out, "# source: %s\n", source)
	_, err = out.Write(data)
	return err
}

func configInitCommand(path string, force bool, out io.Writer) error {
	if err := config.Save(path, config.DefaultConfig(), force); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
