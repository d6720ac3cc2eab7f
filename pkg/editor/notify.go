package editor

import "go.uber.org/zap"

// Notifier receives the user-facing toasts the editor emits. All editor
// failures end here; nothing escalates past a notification.
type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a Notifier that writes toasts to the log, the
// default for headless use.
func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Success(message string) {
	n.log.Info("notification", zap.String("level", "success"), zap.String("message", message))
}

func (n *logNotifier) Warning(message string) {
	n.log.Warn("notification", zap.String("level", "warning"), zap.String("message", message))
}

func (n *logNotifier) Error(message string) {
	n.log.Error("notification", zap.String("level", "error"), zap.String("message", message))
}
