package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yeremiapane/periodic-tables/models"
)

// MemoryStore keeps records in maps. It serializes writers with a mutex but
// offers no rollback, so Atomically just runs fn.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations map[uint]models.Reservation
	tables       map[uint]models.Table
	nextResID    uint
	nextTableID  uint
	now          func() time.Time
}

// NewMemoryStore returns an empty store for local development and tests.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reservations: make(map[uint]models.Reservation),
		tables:       make(map[uint]models.Table),
		now:          time.Now,
	}
}

func (s *MemoryStore) GetReservation(_ context.Context, id uint) (models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return models.Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListReservationsByDate(_ context.Context, date string) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Reservation{}
	for _, r := range s.reservations {
		if r.ReservationDate != date || r.Status == models.StatusFinished || r.Status == models.StatusCancelled {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ReservationTime != result[j].ReservationTime {
			return result[i].ReservationTime < result[j].ReservationTime
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *MemoryStore) SearchReservationsByPhone(_ context.Context, digits string) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Reservation{}
	for _, r := range s.reservations {
		if strings.Contains(stripPhone(r.MobileNumber), digits) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.ReservationDate != b.ReservationDate {
			return a.ReservationDate < b.ReservationDate
		}
		if a.ReservationTime != b.ReservationTime {
			return a.ReservationTime < b.ReservationTime
		}
		return a.ID < b.ID
	})
	return result, nil
}

func (s *MemoryStore) InsertReservation(_ context.Context, r models.Reservation) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextResID++
	r.ID = s.nextResID
	if r.Status == "" {
		r.Status = models.StatusBooked
	}
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	s.reservations[r.ID] = r
	return r, nil
}

func (s *MemoryStore) UpdateReservation(_ context.Context, r models.Reservation) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reservations[r.ID]
	if !ok {
		return models.Reservation{}, ErrNotFound
	}
	if current.Status != r.Status {
		return models.Reservation{}, ErrConflict
	}
	current.FirstName = r.FirstName
	current.LastName = r.LastName
	current.MobileNumber = r.MobileNumber
	current.ReservationDate = r.ReservationDate
	current.ReservationTime = r.ReservationTime
	current.People = r.People
	current.UpdatedAt = s.now()
	s.reservations[r.ID] = current
	return current, nil
}

func (s *MemoryStore) SetReservationStatus(_ context.Context, id uint, from, to models.ReservationStatus) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reservations[id]
	if !ok {
		return models.Reservation{}, ErrNotFound
	}
	if current.Status != from {
		return models.Reservation{}, ErrConflict
	}
	current.Status = to
	current.UpdatedAt = s.now()
	s.reservations[id] = current
	return current, nil
}

func (s *MemoryStore) GetTable(_ context.Context, id uint) (models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[id]
	if !ok {
		return models.Table{}, ErrNotFound
	}
	return cloneTable(t), nil
}

func (s *MemoryStore) ListTables(_ context.Context) ([]models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Table, 0, len(s.tables))
	for _, t := range s.tables {
		result = append(result, cloneTable(t))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TableName != result[j].TableName {
			return result[i].TableName < result[j].TableName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *MemoryStore) InsertTable(_ context.Context, t models.Table) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTableID++
	t = cloneTable(t)
	t.ID = s.nextTableID
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.tables[t.ID] = t
	return cloneTable(t), nil
}

func (s *MemoryStore) SetTableReservation(_ context.Context, tableID uint, expected, next *uint) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tables[tableID]
	if !ok {
		return models.Table{}, ErrNotFound
	}
	if !sameID(current.ReservationID, expected) {
		return models.Table{}, ErrConflict
	}
	if next != nil {
		for id, other := range s.tables {
			if id != tableID && sameID(other.ReservationID, next) {
				return models.Table{}, ErrConflict
			}
		}
	}
	current.ReservationID = copyID(next)
	current.UpdatedAt = s.now()
	s.tables[tableID] = current
	return cloneTable(current), nil
}

func (s *MemoryStore) Atomically(_ context.Context, fn func(Store) error) error {
	return fn(s)
}

func cloneTable(t models.Table) models.Table {
	t.ReservationID = copyID(t.ReservationID)
	return t
}

func copyID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
