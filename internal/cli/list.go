package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var listPaths bool

// listCmd prints the discovered configurations
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List VPN configurations",
	Long: `List the VPN configuration files netcloak can connect with.

Examples:
  netcloak list
  netcloak list --dir ~/vpn --paths`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return listCommand(a, listPaths, cmd.OutOrStdout())
	},
}

func init() {
	listCmd.Flags().BoolVar(&listPaths, "paths", false, "print the path passed to the client instead of the name")
	rootCmd.AddCommand(listCmd)
}

func listCommand(a *app, paths bool, out io.Writer) error {
	refs, err := a.discoverer.Discover()
	if err != nil {
		return err
	}
	for _, r := range refs {
		if paths {
			fmt.Fprintln(out, r.String())
		} else {
			fmt.Fprintln(out, r.Name())
		}
	}
	return nil
}
