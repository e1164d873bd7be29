package authflow

import (
	"time"

	"github.com/rs/zerolog"
)

// Level classifies a notice for presentation.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a non-blocking, dismissible user notification. TTL is a hint
// for time-limited display; zero means the host's default.
type Notice struct {
	Level   Level
	Title   string
	Message string
	TTL     time.Duration
}

// Notifier surfaces notices to the user. Implementations must not block
// the flow.
type Notifier interface {
	Notify(n Notice)
}

// NopNotifier discards all notices.
type NopNotifier struct{}

func (NopNotifier) Notify(Notice) {}

// LogNotifier writes notices to a zerolog logger, for headless hosts.
type LogNotifier struct {
	Log zerolog.Logger
}

func (l LogNotifier) Notify(n Notice) {
	event := l.Log.Info()
	if n.Level == LevelError {
		event = l.Log.Warn()
	}
	event.Str("title", n.Title).Msg(n.Message)
}
