package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/periodic-tables/database"
	"github.com/yeremiapane/periodic-tables/events"
	"github.com/yeremiapane/periodic-tables/metrics"
	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/repository"
	"github.com/yeremiapane/periodic-tables/rules"
	"github.com/yeremiapane/periodic-tables/services"
	"github.com/yeremiapane/periodic-tables/validation"
)

// Saturday 2026-10-17 14:20 UTC.
var fixedNow = time.Date(2026, 10, 17, 14, 20, 0, 0, time.UTC)

const nextWednesday = "2026-10-21"

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []events.Type
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

type fixture struct {
	store        repository.Store
	reservations *services.ReservationService
	tables       *services.TableService
	seating      *services.SeatingCoordinator
	published    *recorder
	registry     *prometheus.Registry
}

func newFixture(t *testing.T, store repository.Store) fixture {
	t.Helper()
	registry := prometheus.NewRegistry()
	published := &recorder{}
	deps := services.Deps{
		Store:     store,
		Publisher: published,
		Metrics:   metrics.NewSeatingMetricsWithRegisterer(registry),
		Now:       func() time.Time { return fixedNow },
	}
	cfg := rules.DefaultConfig()
	cfg.Location = time.UTC
	engine := rules.NewEngine(cfg).WithClock(func() time.Time { return fixedNow })

	return fixture{
		store:        store,
		reservations: services.NewReservationService(deps, engine),
		tables:       services.NewTableService(deps),
		seating:      services.NewSeatingCoordinator(deps),
		published:    published,
		registry:     registry,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

var stores = map[string]func(t *testing.T) repository.Store{
	"memory": func(t *testing.T) repository.Store { return repository.NewMemoryStore() },
	"gorm":   func(t *testing.T) repository.Store { return repository.NewGormStore(setupTestDB(t)) },
}

func annLee(people int) validation.Fields {
	return validation.Fields{
		"first_name":       "Ann",
		"last_name":        "Lee",
		"mobile_number":    "800-555-0100",
		"reservation_date": nextWednesday,
		"reservation_time": "18:00",
		"people":           float64(people),
	}
}

func tableFields(name string, capacity int) validation.Fields {
	return validation.Fields{"table_name": name, "capacity": float64(capacity)}
}

func (f fixture) book(t *testing.T, people int) models.Reservation {
	t.Helper()
	r, err := f.reservations.Create(context.Background(), annLee(people))
	require.NoError(t, err)
	return r
}

func (f fixture) table(t *testing.T, name string, capacity int) models.Table {
	t.Helper()
	table, err := f.tables.Create(context.Background(), tableFields(name, capacity))
	require.NoError(t, err)
	return table
}

// failingStore injects failures into the writes of a seating saga.
type failingStore struct {
	repository.Store

	statusErr error
	// tableErr fails the tableFailOn-th call to SetTableReservation (1-based).
	tableErr    error
	tableFailOn int
	tableCalls  int

	// transactional makes the store report rollback support; rollbackErr
	// then fails the rollback of a failed Atomically call.
	transactional bool
	rollbackErr   error
}

func (f *failingStore) SetReservationStatus(ctx context.Context, id uint, from, to models.ReservationStatus) (models.Reservation, error) {
	if f.statusErr != nil {
		return models.Reservation{}, f.statusErr
	}
	return f.Store.SetReservationStatus(ctx, id, from, to)
}

func (f *failingStore) SetTableReservation(ctx context.Context, tableID uint, expected, next *uint) (models.Table, error) {
	f.tableCalls++
	if f.tableErr != nil && f.tableCalls == f.tableFailOn {
		return models.Table{}, f.tableErr
	}
	return f.Store.SetTableReservation(ctx, tableID, expected, next)
}

func (f *failingStore) Atomically(_ context.Context, fn func(repository.Store) error) error {
	err := fn(f)
	if err != nil && f.transactional && f.rollbackErr != nil {
		return fmt.Errorf("%w: %w", repository.ErrRollback, errors.Join(err, f.rollbackErr))
	}
	return err
}

func (f *failingStore) RollsBack() bool {
	return f.transactional
}
