package service

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/store"
)

// Tracker owns the user-data blob and the daily summary history.
// Mutations of user data are serialised; reads go straight to the store.
type Tracker struct {
	store    store.Store
	bus      *events.Bus
	logger   *slog.Logger
	now      func() time.Time
	validate *validator.Validate

	mu sync.Mutex
}

type Option func(*Tracker)

func WithBus(bus *events.Bus) Option {
	return func(t *Tracker) { t.bus = bus }
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithClock overrides time.Now, mostly for day-rollover tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(s store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:    s,
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.bus == nil {
		t.bus = events.NewBus(0)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return t
}

func (t *Tracker) Bus() *events.Bus { return t.bus }

func (t *Tracker) Store() store.Store { return t.store }

func (t *Tracker) Now() time.Time { return t.now() }

func (t *Tracker) today() string { return dateKey(t.now()) }
