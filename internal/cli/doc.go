// Package cli implements the netcloak command-line interface.
//
// Running netcloak with no subcommand opens the dashboard: pick a VPN
// configuration, watch it connect, then monitor latency and tunnel health.
// The subcommands cover the same ground without a full-screen UI:
//
//	netcloak                   - Interactive dashboard
//	netcloak connect [config]  - Connect and print samples until interrupted
//	netcloak list              - List discovered configurations
//	netcloak ping              - Take a few latency samples
//	netcloak config show|init  - Inspect or create .netcloak.yaml
//	netcloak version           - Print version information
//
// Every command loads configuration the same way (see config.Load) and logs
// to the file named by log.file, never to the terminal.
package cli
