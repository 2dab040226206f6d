// Package notify sends desktop notifications when a bulk apply finishes.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/boorutools/bulk-tag-editor/internal/logging"
)

const appName = "Bulk Tag Editor"

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex

	// notify and alert default to beeep; replaced in tests.
	notify func(title, message string) error
	alert  func(title, message string) error
}

// NewNotifier creates a notifier. A nil logger falls back to the default CLI
// logger.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Notifier{
		logger:  logger,
		enabled: enabled,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// BulkComplete reports the end of a bulk apply. Runs with failures are sent
// as alerts.
func (n *Notifier) BulkComplete(platform string, total, failed int) {
	if !n.IsEnabled() {
		return
	}

	if failed == 0 {
		message := fmt.Sprintf("Updated %d record(s) on %s.", total, platform)
		if err := n.notify(appName, message); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to send completion notification")
		}
		return
	}

	title := appName + ": completed with errors"
	message := fmt.Sprintf("%d of %d record(s) on %s could not be updated.", failed, total, platform)
	if err := n.alert(title, message); err != nil {
		// Fall back to regular notify
		if err := n.notify(title, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}
