package dashboard

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/netcloak/internal/session"
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyReconnect   = "r"
	KeyDisconnect  = "d"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyConfirm     = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input for the current phase.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := strings.ToLower(msg.String())

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	if key == KeyQuit || key == KeyQuitAlt {
		m.machine.RequestQuit()
		if m.machine.Phase() == session.Terminated {
			return true, m.quit()
		}
		// Connecting: the next poll sees the flag and terminates
		return true, nil
	}

	switch m.machine.Phase() {
	case session.SelectingConfig:
		return m.handleSelectKey(key)
	case session.Monitoring:
		return m.handleMonitorKey(key)
	case session.DisconnectMenu:
		return m.handleMenuKey(key)
	}
	return false, nil
}

func (m *Model) handleSelectKey(key string) (bool, tea.Cmd) {
	configs := m.machine.Snapshot().Configs

	switch key {
	case KeySelectPrev, KeySelectPrevK:
		if m.cursor > 0 {
			m.cursor--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.cursor < len(configs)-1 {
			m.cursor++
		}
		return true, nil

	case KeySelectFirst:
		m.cursor = 0
		return true, nil

	case KeySelectLast:
		if len(configs) > 0 {
			m.cursor = len(configs) - 1
		}
		return true, nil

	case KeyConfirm:
		if len(configs) == 0 {
			return true, nil
		}
		m.clampCursor()
		if err := m.machine.Select(configs[m.cursor]); err != nil {
			m.log.Warn("select %s: %v", configs[m.cursor], err)
			if m.machine.Phase() == session.Terminated {
				return true, m.quit()
			}
			m.clampCursor()
			return true, m.noticeCmd()
		}
		return true, m.pollNowCmd()
	}
	return false, nil
}

func (m *Model) handleMonitorKey(key string) (bool, tea.Cmd) {
	switch key {
	case KeyReconnect:
		if err := m.machine.Reconnect(); err != nil {
			m.log.Warn("reconnect: %v", err)
			if m.machine.Phase() == session.Terminated {
				return true, m.quit()
			}
			m.clampCursor()
			return true, m.noticeCmd()
		}
		return true, m.pollNowCmd()

	case KeyDisconnect:
		if err := m.machine.Disconnect(); err != nil {
			m.log.Warn("disconnect: %v", err)
			return true, nil
		}
		m.menuCursor = 0
		return true, nil
	}
	return false, nil
}

func (m *Model) handleMenuKey(key string) (bool, tea.Cmd) {
	switch key {
	case KeySelectPrev, KeySelectPrevK:
		if m.menuCursor > 0 {
			m.menuCursor--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.menuCursor < len(session.Choices)-1 {
			m.menuCursor++
		}
		return true, nil

	case KeyConfirm:
		choice := session.Choices[m.menuCursor]
		if err := m.machine.Choose(choice); err != nil {
			m.log.Warn("menu choice %s: %v", choice, err)
			return true, m.noticeCmd()
		}
		switch m.machine.Phase() {
		case session.Connecting:
			return true, m.pollNowCmd()
		case session.Terminated:
			return true, m.quit()
		}
		m.clampCursor()
		return true, nil
	}
	return false, nil
}
