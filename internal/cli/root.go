package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile   string
	dirFlag   string
	noColor   bool
	verbose   bool
	errOutput io.Writer = os.Stderr
)

// rootCmd runs the dashboard when invoked without a subcommand
var rootCmd = &cobra.Command{
	Use:   "netcloak",
	Short: "Terminal dashboard for an OpenVPN client",
	Long: `netcloak launches an OpenVPN client for a configuration you pick,
waits for the tunnel to come up, and then shows live latency and
tunnel health until you disconnect.

Configurations are the *.ovpn files in the current directory (or --dir).

Examples:
  netcloak
  netcloak --dir ~/vpn
  netcloak connect work.ovpn`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorProfile(noColor)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.OutOrStdout())
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for netcloak.

Examples:
  # Bash
  netcloak completion bash > /etc/bash_completion.d/netcloak

  # Zsh
  netcloak completion zsh > "${fpath[1]}/_netcloak"

  # Fish
  netcloak completion fish > ~/.config/fish/completions/netcloak.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .netcloak.yaml, then ~/.config/netcloak/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "directory to search for VPN configurations")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(completionCmd)
}

// applyColorProfile turns off color when asked to, or when NO_COLOR is set.
func applyColorProfile(disable bool) {
	if disable || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return exitCode(rootCmd.Execute(), errOutput)
}

// exitCode reports err on w and maps it to an exit code: 0 on success, the
// code of an ExitError, or 1 for anything else.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if code, ok := errors.GetExitCode(err); ok {
		return code
	}
	fmt.Fprint(w, err.Error())
	if _, structured := err.(*errors.Error); !structured {
		fmt.Fprintln(w)
	}
	return 1
}
