package board

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier shows a desktop notification.
type Notifier func(title, message string) error

// DesktopNotifier notifies through the platform notification service.
func DesktopNotifier() Notifier {
	return func(title, message string) error {
		return beeep.Notify(title, message, "")
	}
}

// send shows the notification, logging a failing backend instead of
// returning the error.
func (n Notifier) send(logger *slog.Logger, title, message string) {
	if err := n(title, message); err != nil {
		logger.Warn("desktop notification failed", "title", title, "error", err)
	}
}
