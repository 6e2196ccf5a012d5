// Package progress defines the observer through which long-running
// digestion and matching runs report progress, status, warnings and errors.
// Observers are invoked synchronously on the calling goroutine and are
// expected to be cheap.
package progress

import (
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
)

// Observer receives notifications from a digestion or matching run.
type Observer interface {
	// Reset is called when a new unit of work begins.
	Reset()
	// Progress reports the percent complete (0..100) of the current step.
	Progress(description string, percent float64)
	Status(message string)
	Warning(message string)
	// Error reports a failure; err may be nil.
	Error(message string, err error)
}

// Nop is an Observer that ignores everything.
type Nop struct{}

func (Nop) Reset()                   {}
func (Nop) Progress(string, float64) {}
func (Nop) Status(string)            {}
func (Nop) Warning(string)           {}
func (Nop) Error(string, error)      {}

// LogObserver forwards notifications to a structured logger. Progress is
// logged at debug level.
type LogObserver struct {
	log logger.Logger
}

// NewLogObserver returns an observer writing to log, or to the default
// logger when log is nil.
func NewLogObserver(log logger.Logger) *LogObserver {
	if log == nil {
		log = logger.Default()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) Reset() {
	o.log.Debug("progress reset")
}

func (o *LogObserver) Progress(description string, percent float64) {
	o.log.Debug("progress", "step", description, "percent", percent)
}

func (o *LogObserver) Status(message string) {
	o.log.Info(message)
}

func (o *LogObserver) Warning(message string) {
	o.log.Warn(message)
}

func (o *LogObserver) Error(message string, err error) {
	if err != nil {
		o.log.Error(message, "error", err)
		return
	}
	o.log.Error(message)
}

// OrNop returns o, or Nop when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop{}
	}
	return o
}
