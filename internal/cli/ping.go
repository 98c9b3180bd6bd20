package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rileyhilliard/netcloak/internal/dashboard"
	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/telemetry"
	"github.com/spf13/cobra"
)

// ping command flags
var (
	pingCount  int
	pingTarget string
	pingMethod string
)

// pingCmd takes latency samples with the configured probe
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure latency with the configured probe",
	Long: `Take a few latency samples with the same probe the dashboard uses and
print the readings, aggregate stats, and a sparkline.

Examples:
  netcloak ping
  netcloak ping -n 10 --target 1.1.1.1
  netcloak ping --method stun`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if pingTarget != "" {
			a.cfg.Probe.Target = pingTarget
		}
		if pingMethod != "" {
			a.cfg.Probe.Method = pingMethod
		}
		sampler, err := a.sampler()
		if err != nil {
			return err
		}
		return pingCommand(ctx, sampler, a.cfg.Probe.Timeout, a.cfg.Monitor.Interval, pingCount,
			dashboard.Thresholds{Warn: a.cfg.Monitor.WarnMs, Critical: a.cfg.Monitor.CriticalMs}, cmd.OutOrStdout())
	},
}

func init() {
	pingCmd.Flags().IntVarP(&pingCount, "count", "n", 5, "number of samples")
	pingCmd.Flags().StringVar(&pingTarget, "target", "", "override probe.target")
	pingCmd.Flags().StringVar(&pingMethod, "method", "", "override probe.method (ping, icmp, stun)")
	rootCmd.AddCommand(pingCmd)
}

func pingCommand(ctx context.Context, sampler latency.Sampler, timeout, interval time.Duration, count int, t dashboard.Thresholds, out io.Writer) error {
	if count < 1 {
		count = 1
	}
	history := telemetry.NewHistory(count)

	for i := 1; i <= count; i++ {
		probeCtx, cancel := context.WithTimeout(ctx, timeout+time.Second)
		res := sampler.Sample(probeCtx)
		cancel()
		if ctx.Err() != nil {
			break
		}

		history.Record(res)
		line := fmt.Sprintf("%d/%d  %s", i, count, res)
		if res.MappedAddr != "" {
			line += "  public " + res.MappedAddr
		}
		fmt.Fprintln(out, line)

		if i == count {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(interval):
		}
	}

	printSummary(out, history, t)
	return nil
}
