// Package metrics defines the recording capability the core emits transfer
// and resolution events through.
package metrics

import "time"

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Outcome maps an error to the outcome label used across recorders.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
