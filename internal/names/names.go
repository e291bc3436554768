// Package names keeps the in-memory list of names in step with the store.
//
// The Controller is the only writer of the list. Every operation runs under one
// mutex, so operations are applied one at a time in the order they acquire it,
// and the list equals the rows of the store after each successful operation.
package names

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/namesdb/namesdb/internal/db/models"
	"github.com/namesdb/namesdb/internal/db/store"
	"github.com/namesdb/namesdb/internal/diag"
)

const (
	// AlertTitle is the title of the validation alert.
	AlertTitle = "Error"

	// AlertMessage is the message of the validation alert.
	AlertMessage = "Please enter a name."

	opInit   = "names.init"
	opAdd    = "names.add"
	opDelete = "names.delete"
)

var (
	// ErrNameEmpty is returned by AddName for empty input.
	ErrNameEmpty = errors.New("name can not be empty")

	// ErrStoreUnavailable is returned while the controller has no open store.
	ErrStoreUnavailable = errors.New("store is unavailable")
)

// Alerter shows a blocking dialog with a single acknowledgement action.
type Alerter interface {
	Alert(title, message string)
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(title, message string)

// Alert implements Alerter.
func (f AlerterFunc) Alert(title, message string) {
	f(title, message)
}

// nopAlerter drops alerts.
type nopAlerter struct{}

func (nopAlerter) Alert(_, _ string) {}

// AddForm is the input of AddName.
type AddForm struct {
	Name string `form:"name" json:"name" validate:"required"`
}

// Option configures New.
type Option func(*Controller)

// WithReporter sets where store errors are reported. Default: diag.LogReporter.
func WithReporter(r diag.Reporter) Option {
	return func(c *Controller) {
		c.reporter = r
	}
}

// WithAlerter sets the alert shown on empty input. Default: none.
func WithAlerter(a Alerter) Option {
	return func(c *Controller) {
		c.alerter = a
	}
}

// Controller mediates between user intents and the store.
type Controller struct {
	mu        sync.Mutex
	store     *store.Store
	reporter  diag.Reporter
	alerter   Alerter
	validator *validator.Validate

	list    []models.Name
	pending string
	loading bool
}

// New returns a controller on s. Its list is empty and loading until Init.
func New(s *store.Store, opts ...Option) *Controller {
	c := &Controller{
		store:     s,
		reporter:  diag.LogReporter{},
		alerter:   nopAlerter{},
		validator: validator.New(),
		list:      make([]models.Name, 0),
		loading:   true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Init creates the table if absent and loads every row into the list.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.init(ctx)
}

func (c *Controller) init(ctx context.Context) error {
	c.loading = true

	if c.store == nil || c.store.Closed() {
		c.reporter.Report(opInit, ErrStoreUnavailable)
		return ErrStoreUnavailable
	}

	if err := c.store.EnsureSchema(ctx); err != nil {
		c.reporter.Report(opInit, err)
		return err
	}

	rows, err := c.store.ListAll(ctx)
	if err != nil {
		c.reporter.Report(opInit, err)
		return err
	}

	c.list = rows
	c.loading = false

	log.Debug().Int("names", len(rows)).Str("path", c.store.Path()).Msg("names loaded")

	return nil
}

// AddName inserts text and appends the new record to the list.
// Empty input shows the alert and returns ErrNameEmpty.
func (c *Controller) AddName(ctx context.Context, text string) (models.Name, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	form := AddForm{Name: text}
	if err := c.validator.Struct(form); err != nil {
		c.alerter.Alert(AlertTitle, AlertMessage)
		return models.Name{}, ErrNameEmpty
	}

	if err := c.usable(); err != nil {
		c.reporter.Report(opAdd, err)
		return models.Name{}, err
	}

	id, err := c.store.Insert(ctx, form.Name)
	if err != nil {
		c.reporter.Report(opAdd, err)
		return models.Name{}, err
	}

	record := models.Name{ID: id, Name: form.Name}
	c.list = append(c.list, record)
	c.pending = ""

	return record, nil
}

// DeleteName deletes the record with id and drops it from the list.
// An id the store does not know leaves the list unchanged.
func (c *Controller) DeleteName(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		c.reporter.Report(opDelete, err)
		return err
	}

	affected, err := c.store.DeleteByID(ctx, id)
	if err != nil {
		c.reporter.Report(opDelete, err)
		return err
	}

	if affected > 0 {
		c.list = slices.DeleteFunc(c.list, func(n models.Name) bool { return n.ID == id })
	}

	return nil
}

// Reconnect swaps the store handle. swap receives the current handle and returns
// its replacement, or nil when nothing was replaced. The controller adopts a
// non-nil result and reloads from it. No other operation runs between the swap
// and the reload. Errors of swap are returned as they are, swap reports its own.
func (c *Controller) Reconnect(ctx context.Context, swap func(current *store.Store) (*store.Store, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading = true

	next, err := swap(c.store)
	if next != nil {
		c.store = next
	}

	switch {
	case next != nil:
		// a handle opened on whatever file is in place now, even after a failed swap
		if ierr := c.init(ctx); ierr != nil && err == nil {
			err = ierr
		}
	case c.store != nil && !c.store.Closed():
		// nothing replaced, the old list still mirrors the old handle
		c.loading = false
	}

	return err
}

func (c *Controller) usable() error {
	if c.store == nil || c.store.Closed() {
		return ErrStoreUnavailable
	}

	return nil
}

// Available reports whether the controller has an open store. After an import
// whose restore failed too it stays false until the next successful import.
func (c *Controller) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.usable() == nil
}

// Names returns a copy of the list.
func (c *Controller) Names() []models.Name {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.list)
}

// Loading reports whether the list is still being loaded.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loading
}

// SetPending stores the text of the input field.
func (c *Controller) SetPending(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = text
}

// Pending returns the text of the input field.
func (c *Controller) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending
}

// Store returns the current store handle.
func (c *Controller) Store() *store.Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store
}

// Close closes the current store handle.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return nil
	}

	return c.store.Close()
}
