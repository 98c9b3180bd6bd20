package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/netcloak/internal/dashboard"
	"github.com/rileyhilliard/netcloak/internal/errors"
	"golang.org/x/term"
)

// dashboardCommand runs the full-screen dashboard.
func dashboardCommand(out io.Writer) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New(errors.ErrConfig,
			"The dashboard needs an interactive terminal",
			"Use 'netcloak connect <config>' for non-interactive use.")
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sampler, err := a.sampler()
	if err != nil {
		return err
	}

	machine := a.machine()
	if err := machine.Begin(); err != nil {
		return err
	}

	// The client must never outlive the program, however the loop exits
	defer func() {
		machine.Shutdown()
		if machine.StoppedOnShutdown() {
			fmt.Fprintln(out, "VPN disconnected")
		}
	}()

	model := dashboard.NewModel(machine, sampler, a.sup, a.cfg, a.log)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		machine.Fail(err)
		return errors.WrapWithCode(err, errors.ErrState,
			"The dashboard stopped unexpectedly",
			"Check "+a.cfg.Log.File+" for details.")
	}
	return nil
}
