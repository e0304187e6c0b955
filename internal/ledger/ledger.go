// Package ledger holds the two aggregate stores of the application: the
// vehicle ledger (cars and their owned sub-records) and the invoice ledger
// (customers, invoices, templates). Both keep their full state in memory,
// mutate it synchronously, and hand a serialized snapshot to a background
// persister after every change.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Clock supplies the current time. Injected so date-window analytics are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// IDFunc mints entity ids. The default is uuid.NewString; tests may supply a
// deterministic sequence.
type IDFunc func() string

// BlobStore is the durable key-value store the ledgers serialize into. Load
// returns (nil, nil) when no blob exists yet for the key.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// EventSink receives change notifications after every successful mutation.
type EventSink interface {
	Publish(event string, payload any)
}

type config struct {
	clock  Clock
	newID  IDFunc
	log    zerolog.Logger
	events EventSink
}

func defaultConfig() config {
	return config{
		clock: systemClock{},
		newID: uuid.NewString,
		log:   zerolog.Nop(),
	}
}

// Option customizes a ledger at construction time.
type Option func(*config)

// WithClock overrides the system clock.
func WithClock(c Clock) Option { return func(cfg *config) { cfg.clock = c } }

// WithIDFunc overrides the id generator.
func WithIDFunc(f IDFunc) Option { return func(cfg *config) { cfg.newID = f } }

// WithLogger sets the ledger logger.
func WithLogger(l zerolog.Logger) Option { return func(cfg *config) { cfg.log = l } }

// WithEvents attaches an event sink notified on every mutation.
func WithEvents(s EventSink) Option { return func(cfg *config) { cfg.events = s } }

// today truncates the clock time to midnight in its location. All date-window
// comparisons (overdue, upcoming, expiring) work on whole days.
func today(c Clock) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func publish(cfg *config, event string, payload any) {
	if cfg.events != nil {
		cfg.events.Publish(event, payload)
	}
}
