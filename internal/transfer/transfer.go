// Package transfer moves the database file between private storage and a user chosen place.
package transfer

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/namesdb/namesdb/internal/db/store"
	"github.com/namesdb/namesdb/internal/diag"
)

const (
	// DefaultFileName is the name of exported database files.
	DefaultFileName = "example.db"

	// MimeType is the content type of exported database files.
	MimeType = "application/octet-stream"

	// OpExport and OpImport name the operations in error reports and metrics.
	OpExport = "transfer.export"
	OpImport = "transfer.import"

	filePerm = 0o600
	dirPerm  = 0o750
)

var (
	// ErrCancelled is returned by a Picker when the user closed it without choosing a file.
	ErrCancelled = errors.New("no file chosen")

	// ErrPermissionDenied is returned when the user refused access to an export directory.
	ErrPermissionDenied = errors.New("permission not granted")

	// ErrInvalidDatabase is returned when an imported file is not a names database.
	ErrInvalidDatabase = store.ErrInvalidDatabase

	transfers = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "namesdb_transfer_total",
			Help: "Number of database imports and exports, differentiated by result.",
		},
		[]string{"op", "result"},
	)
)

// Option configures New.
type Option func(*Gateway)

// WithReporter sets where transfer errors are reported. Default: diag.LogReporter.
func WithReporter(r diag.Reporter) Option {
	return func(g *Gateway) {
		g.reporter = r
	}
}

// WithFileName sets the name of exported files. Default: DefaultFileName.
func WithFileName(name string) Option {
	return func(g *Gateway) {
		if name != "" {
			g.fileName = name
		}
	}
}

// WithStateHook registers fn to observe every import state transition.
func WithStateHook(fn func(State)) Option {
	return func(g *Gateway) {
		g.hook = fn
	}
}

// Gateway imports and exports the database file of a store.
type Gateway struct {
	reporter diag.Reporter
	fileName string
	hook     func(State)

	mu    sync.Mutex
	state State
}

// New returns an idle gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		reporter: diag.LogReporter{},
		fileName: DefaultFileName,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// State returns the current import state.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

func (g *Gateway) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()

	log.Debug().Str("state", s.String()).Msg("import state")

	if g.hook != nil {
		g.hook(s)
	}
}

// fail reports err for op, counts it and returns it.
func (g *Gateway) fail(op string, err error) error {
	g.reporter.Report(op, err)
	transfers.WithLabelValues(op, "error").Inc()

	return err
}

// Export hands the database file of s to e.
// It returns where the file went: the written file, or the shared path.
func (g *Gateway) Export(ctx context.Context, s *store.Store, e Exporter) (string, error) {
	if s == nil || s.Closed() {
		return "", g.fail(OpExport, store.ErrClosed)
	}

	dest, err := e.Export(ctx, Source{Path: s.Path(), FileName: g.fileName, MimeType: MimeType})
	if err != nil {
		return "", g.fail(OpExport, errors.Wrap(err, "export failed"))
	}

	transfers.WithLabelValues(OpExport, "ok").Inc()
	log.Info().Str("source", s.Path()).Str("destination", dest).Msg("database exported")

	return dest, nil
}
