package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/netcloak/internal/dashboard"
	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/session"
	"github.com/rileyhilliard/netcloak/internal/supervisor"
	"github.com/rileyhilliard/netcloak/internal/telemetry"
	"github.com/rileyhilliard/netcloak/internal/vpnconfig"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// connect command flags
var connectSamples int

// connectCmd supervises a connection without the dashboard
var connectCmd = &cobra.Command{
	Use:   "connect [config]",
	Short: "Connect and print latency samples",
	Long: `Start the VPN client for a configuration, wait for the tunnel to come up,
then print one latency sample per monitor interval until interrupted.

Without an argument you are asked to pick a configuration (or the only one
is used). The argument may be a file name or a path.

Examples:
  netcloak connect
  netcloak connect work.ovpn
  netcloak connect --samples 10 work.ovpn`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return connectCommand(ctx, a, ref, connectSamples, cmd.OutOrStdout())
	},
}

func init() {
	connectCmd.Flags().IntVarP(&connectSamples, "samples", "n", 0, "stop after this many samples (0 runs until interrupted)")
	rootCmd.AddCommand(connectCmd)
}

// connectCommand is the headless control loop: start, await convergence,
// then sample until ctx is done or the sample budget is spent.
func connectCommand(ctx context.Context, a *app, arg string, samples int, out io.Writer) error {
	refs, err := a.discoverer.Discover()
	if err != nil {
		return err
	}
	ref, err := pickConfig(refs, arg, a.cfg.Discovery.Extension)
	if err != nil {
		return err
	}

	sampler, err := a.sampler()
	if err != nil {
		return err
	}

	h, err := a.sup.Start(ref)
	if err != nil {
		return err
	}
	connected := false
	defer func() {
		a.sup.Stop()
		if connected {
			fmt.Fprintln(out, "VPN disconnected")
		}
	}()

	sched := a.schedule()
	fmt.Fprintf(out, "Connecting with %s (log %s)\n", ref.Name(), h.LogPath)
	outcome := a.sup.AwaitConvergence(ctx, sched, func(attempt int, res supervisor.PollResult) {
		line := fmt.Sprintf("Attempt %d/%d", attempt, sched.Attempts)
		if res.LastLine != "" {
			line += "  " + res.LastLine
		}
		fmt.Fprintln(out, line)
	})

	switch outcome.Kind {
	case supervisor.OutcomeCancelled:
		return nil
	case supervisor.OutcomeFailed:
		return errors.New(errors.ErrConnect,
			"Connection failed! Check "+h.LogPath,
			outcome.Reason)
	case supervisor.OutcomeTimedOut:
		return errors.New(errors.ErrTimeout,
			"Connection timeout after "+session.FormatSeconds(time.Duration(sched.Attempts)*sched.Interval)+" seconds",
			"Check "+h.LogPath+" for what the client was doing.")
	}

	connected = true
	fmt.Fprintln(out, "Connected successfully!")
	history := telemetry.NewHistory(a.cfg.Monitor.HistorySize)
	monitorLoop(ctx, a, sampler, history, samples, out)
	printSummary(out, history, dashboard.Thresholds{Warn: a.cfg.Monitor.WarnMs, Critical: a.cfg.Monitor.CriticalMs})
	return nil
}

// monitorLoop samples once per monitor interval. A sample finishes before
// the next wait starts, so probes never overlap.
func monitorLoop(ctx context.Context, a *app, sampler latency.Sampler, history *telemetry.History, limit int, out io.Writer) {
	for n := 1; limit <= 0 || n <= limit; n++ {
		probeCtx, cancel := context.WithTimeout(ctx, a.cfg.Probe.Timeout+time.Second)
		res := sampler.Sample(probeCtx)
		healthy := a.sup.IsHealthy(probeCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}

		history.Record(res)
		status := "DISCONNECTED"
		if healthy {
			status = "CONNECTED"
		}
		line := fmt.Sprintf("%-12s latency %s", status, res)
		if res.MappedAddr != "" {
			line += "  public " + res.MappedAddr
		}
		fmt.Fprintln(out, line)

		if limit > 0 && n == limit {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.cfg.Monitor.Interval):
		}
	}
}

// pickConfig resolves the config argument, prompting when there is none.
func pickConfig(refs []vpnconfig.Ref, arg, ext string) (vpnconfig.Ref, error) {
	if arg != "" {
		for _, r := range refs {
			if string(r) == arg || r.Name() == arg || strings.TrimSuffix(r.Name(), ext) == arg {
				return r, nil
			}
		}
		names := make([]string, len(refs))
		for i, r := range refs {
			names[i] = r.Name()
		}
		return "", errors.New(errors.ErrConfig,
			fmt.Sprintf("Configuration '%s' not found", arg),
			"Available: "+strings.Join(names, ", "))
	}

	if len(refs) == 1 {
		return refs[0], nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New(errors.ErrConfig,
			"Several configurations found and no terminal to ask which one",
			"Pass the configuration name: netcloak connect <config>")
	}

	options := make([]huh.Option[string], len(refs))
	for i, r := range refs {
		options[i] = huh.NewOption(r.Name(), string(r))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select VPN configuration").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your selection",
			"Try again or use: netcloak connect <config>")
	}
	return vpnconfig.Ref(selected), nil
}

// printSummary prints aggregate stats and a sparkline of the session.
func printSummary(out io.Writer, history *telemetry.History, t dashboard.Thresholds) {
	stats := history.Stats()
	if !stats.Valid() {
		fmt.Fprintln(out, "No successful samples")
		return
	}
	fmt.Fprintf(out, "%d samples: avg %.2f ms | min %.2f ms | max %.2f ms\n", stats.Count, stats.Avg, stats.Min, stats.Max)
	fmt.Fprintln(out, dashboard.RenderSparkline(history.Values(), 60, t))
}
