// Package diag routes store and file errors through one reporting interface.
package diag

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Reporter receives every store or file error the application does not surface to the user.
type Reporter interface {
	Report(op string, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(op string, err error)

// Report implements Reporter.
func (f ReporterFunc) Report(op string, err error) {
	f(op, err)
}

// LogReporter logs reported errors with the global zerolog logger.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(op string, err error) {
	if err == nil {
		return
	}

	log.Error().Err(err).Str("op", op).Msg("operation failed")
}

// Failure is one reported error.
type Failure struct {
	Op  string
	Err error
}

// Recorder keeps reported errors in memory.
type Recorder struct {
	mu       sync.Mutex
	failures []Failure
}

// Report implements Reporter.
func (r *Recorder) Report(op string, err error) {
	if err == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, Failure{Op: op, Err: err})
}

// Failures returns a copy of everything reported so far.
func (r *Recorder) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Failure, len(r.failures))
	copy(out, r.failures)

	return out
}

// Ops returns the operation names reported so far, in order.
func (r *Recorder) Ops() []string {
	failures := r.Failures()
	ops := make([]string, 0, len(failures))

	for _, f := range failures {
		ops = append(ops, f.Op)
	}

	return ops
}
