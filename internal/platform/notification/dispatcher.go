package notification

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher sends scheduling notifications on a best-effort basis. A delivery
// failure is logged and swallowed; booking and rescheduling outcomes never
// depend on the notification channel.
type Dispatcher struct {
	manager *Manager
	logger  zerolog.Logger
	timeout time.Duration
}

func NewDispatcher(manager *Manager, logger zerolog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{manager: manager, logger: logger, timeout: timeout}
}

// Notify renders the template and sends it to the recipient with a bounded
// deadline detached from the caller's context.
func (d *Dispatcher) Notify(ctx context.Context, recipient, templateID string, data map[string]string) {
	if d == nil || d.manager == nil {
		return
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if _, err := d.manager.SendFromTemplate(sctx, templateID, data, recipient); err != nil {
		d.logger.Warn().Err(err).
			Str("template", templateID).
			Str("recipient", recipient).
			Msg("notification delivery failed")
	}
}
