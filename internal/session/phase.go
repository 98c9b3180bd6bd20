package session

// Phase is the position of the session in its lifecycle.
type Phase int

const (
	SelectingConfig Phase = iota
	Connecting
	Monitoring
	DisconnectMenu
	Terminated
)

func (p Phase) String() string {
	switch p {
	case SelectingConfig:
		return "selecting"
	case Connecting:
		return "connecting"
	case Monitoring:
		return "monitoring"
	case DisconnectMenu:
		return "disconnected"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Choice is an option of the disconnect menu.
type Choice int

const (
	ReconnectSame Choice = iota
	ChooseAnother
	Exit
)

// Choices lists the disconnect menu options in display order.
var Choices = []Choice{ReconnectSame, ChooseAnother, Exit}

func (c Choice) String() string {
	switch c {
	case ReconnectSame:
		return "Reconnect to current config"
	case ChooseAnother:
		return "Choose another VPN config"
	case Exit:
		return "Exit application"
	default:
		return "unknown"
	}
}

// NoticeLevel colors a transient notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// Notice is a transient message shown for a fixed duration.
type Notice struct {
	Text  string
	Level NoticeLevel
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool {
	return n.Text == ""
}
