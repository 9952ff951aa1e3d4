package monitoring

import (
	"github.com/rs/zerolog/log"
)

// Alert emits an alert log entry (picked up by the log-based alerting
// pipeline; no pager integration here).
func Alert(message string, labels map[string]string) {
	log.Error().
		Str("alert", message).
		Fields(labels).
		Msg("ALERT: SIIGO integration issue detected")
}
