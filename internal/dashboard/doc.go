// Package dashboard is the full-screen terminal UI for netcloak.
//
// It is a Bubble Tea program wrapped around a session.Machine. The Update
// goroutine is the only code that touches the machine; probes and health
// checks run inside commands and come back as messages:
//
//	SelectingConfig --enter--> Connecting --poll tick--> Monitoring
//	      ^                        |                        |   |
//	      +---- failed/timeout ----+                   r    |   d
//	      +------------ choose another ---- DisconnectMenu <+---+
//
// Connect polls are scheduled with tea.Tick at the connect interval. In
// Monitoring a sample is taken, applied, and only then is the next one
// scheduled, so samples never overlap. Every scheduled message carries the
// session generation it was issued for and is dropped if a reconnect has
// happened since.
//
// Keyboard shortcuts:
//
//	↑/k, ↓/j    Move the selection
//	Enter       Connect / confirm menu choice
//	r           Reconnect with the current configuration
//	d           Disconnect and open the menu
//	q, Ctrl+C   Quit (while connecting, at the next poll)
//	?           Toggle help
package dashboard
