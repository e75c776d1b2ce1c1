package task

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/hvac-controller/internal/status"
)

// ConnectionStatus reports whether an actuator link is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// Heartbeat returns a task that logs a one-line status summary every period.
// conn may be nil for actuators without a link.
func Heartbeat(tracker *status.Tracker, conn ConnectionStatus, period time.Duration) Task {
	return Task{
		Name:   "heartbeat",
		Period: period,
		Step: func(_ context.Context, _ time.Time) {
			if conn != nil {
				tracker.SetActuatorConnected(conn.IsConnected())
			}
			log.Printf("heartbeat: %s", status.FormatLine(tracker.Snapshot()))
		},
	}
}
