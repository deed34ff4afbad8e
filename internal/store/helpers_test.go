package store

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler fires timers only when Advance moves its clock past their
// deadline. Callbacks run outside the scheduler lock, after Advance has
// released it.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && !t.at.After(s.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// Pending counts timers that are neither stopped nor fired.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type recordedNote struct {
	Type    models.NotificationType
	Message string
}

type recordingNotifier struct {
	notes []recordedNote
}

func (r *recordingNotifier) Notify(typ models.NotificationType, _, message string) {
	r.notes = append(r.notes, recordedNote{Type: typ, Message: message})
}

type recordingPersister struct {
	mu     sync.Mutex
	states []models.PersistedState
}

func (r *recordingPersister) Persist(state models.PersistedState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingPersister) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *recordingPersister) Last() models.PersistedState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func newProduct(id int64, name string, category models.Category, price, originalPrice string) models.Product {
	return models.Product{
		ID:            id,
		Name:          name,
		Category:      category,
		Price:         dec(price),
		OriginalPrice: dec(originalPrice),
		Stock:         10,
		InStock:       true,
	}
}

func testCatalog() []models.Product {
	sunset := newProduct(1, "Sunset Dreams Canvas", models.CategoryPaintings, "299.99", "349.99")
	sunset.Featured = true
	sunset.Rating = 4.9
	sunset.Tags = []string{"landscape", "sunset"}

	lavender := newProduct(2, "Lavender Bliss Candle", models.CategoryCandles, "30", "30")
	lavender.Rating = 4.8
	lavender.Description = "Hand-poured soy candle"
	lavender.Tags = []string{"aromatherapy"}

	leaf := newProduct(3, "Golden Leaf Necklace", models.CategoryNecklaces, "89.99", "109.99")
	leaf.Stock = 2
	leaf.Rating = 4.7

	vanilla := newProduct(4, "Vanilla Spice Candle", models.CategoryCandles, "10", "20")
	vanilla.Featured = true
	vanilla.Rating = 4.6

	rose := newProduct(5, "Rose Gold Chain", models.CategoryNecklaces, "124.99", "149.99")
	rose.Stock = 0
	rose.InStock = false

	moon := newProduct(6, "moonlight Candle", models.CategoryCandles, "20", "25")
	moon.Rating = 4.9

	return []models.Product{sunset, lavender, leaf, vanilla, rose, moon}
}

type testStore struct {
	*Store
	sched     *manualScheduler
	persister *recordingPersister
	logger    *recordingLogger
}

func newTestStore(t *testing.T, initial *models.PersistedState) *testStore {
	t.Helper()

	sched := newManualScheduler()
	persister := &recordingPersister{}
	logger := &recordingLogger{}
	orderSeq := 0

	s, err := New(Options{
		Products:  testCatalog(),
		Initial:   initial,
		Persister: persister,
		Scheduler: sched,
		Logger:    logger,
		NewOrderNumber: func() string {
			orderSeq++
			return fmt.Sprintf("ORD-%04d", orderSeq)
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return &testStore{Store: s, sched: sched, persister: persister, logger: logger}
}

func productIDs(products []models.Product) []int64 {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func messages(notes []models.Notification) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Message
	}
	return out
}
