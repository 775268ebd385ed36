// Package notify fans flag status transitions out to chat and messaging
// channels. Delivery is best-effort; a failed notifier never fails the
// update that produced the event.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/FlagWatch/FlagWatch/internal/flagstatus"
)

// Event is one observed status transition.
type Event struct {
	Previous *flagstatus.FlagStatus
	Current  flagstatus.FlagStatus
}

// Lowered reports whether the flags are now at half-staff.
func (e Event) Lowered() bool {
	return e.Current.HalfStaff()
}

// Raised reports whether the flags returned to full staff.
func (e Event) Raised() bool {
	return !e.Current.HalfStaff() && e.Previous != nil && e.Previous.HalfStaff()
}

// Summary renders a one-line message for chat channels.
func (e Event) Summary() string {
	if e.Current.HalfStaff() {
		msg := "Flags lowered to half-staff"
		if e.Current.Reason != "" {
			msg += ": " + e.Current.Reason
		}
		if e.Current.EndDate != "" {
			msg += " (through " + e.Current.EndDate + ")"
		}
		return msg
	}
	return "Flags returned to full staff"
}

// Notifier delivers events to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}

// notifyTimeout bounds each notifier's delivery attempt.
const notifyTimeout = 30 * time.Second

// Dispatcher fans one event out to every configured notifier.
type Dispatcher struct {
	notifiers []Notifier
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Len reports how many notifiers are configured.
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Dispatch delivers ev to each notifier in turn. Errors are logged, not
// returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	for _, n := range d.notifiers {
		nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		err := n.Notify(nctx, ev)
		cancel()
		if err != nil {
			slog.Warn("Notification failed", "notifier", n.Name(), "error", err)
			continue
		}
		slog.Info("Notification sent", "notifier", n.Name(), "status", ev.Current.Status)
	}
}
