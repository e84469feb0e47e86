package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/periodic-tables/models"
)

const phoneColumn = "REPLACE(REPLACE(REPLACE(REPLACE(mobile_number, '(', ''), ')', ''), '-', ''), ' ', '')"

// GormStore implements Store on any gorm dialect (mysql, postgres, sqlite).
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetReservation(ctx context.Context, id uint) (models.Reservation, error) {
	var r models.Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return models.Reservation{}, translate(err, "get reservation %d", id)
	}
	return r, nil
}

func (s *GormStore) ListReservationsByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	err := s.db.WithContext(ctx).
		Where("reservation_date = ?", date).
		Where("status NOT IN ?", []string{string(models.StatusFinished), string(models.StatusCancelled)}).
		Order("reservation_time").
		Order("id").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("list reservations for %s: %w", date, err)
	}
	return reservations, nil
}

func (s *GormStore) SearchReservationsByPhone(ctx context.Context, digits string) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	err := s.db.WithContext(ctx).
		Where(phoneColumn+" LIKE ?", "%"+digits+"%").
		Order("reservation_date").
		Order("reservation_time").
		Order("id").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("search reservations by phone: %w", err)
	}
	return reservations, nil
}

func (s *GormStore) InsertReservation(ctx context.Context, r models.Reservation) (models.Reservation, error) {
	r.ID = 0
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return models.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}
	return r, nil
}

func (s *GormStore) UpdateReservation(ctx context.Context, r models.Reservation) (models.Reservation, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", r.ID, string(r.Status)).
		Updates(map[string]any{
			"first_name":       r.FirstName,
			"last_name":        r.LastName,
			"mobile_number":    r.MobileNumber,
			"reservation_date": r.ReservationDate,
			"reservation_time": r.ReservationTime,
			"people":           r.People,
		})
	if res.Error != nil {
		return models.Reservation{}, fmt.Errorf("update reservation %d: %w", r.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Reservation{}, s.missOrConflict(ctx, &models.Reservation{}, r.ID)
	}
	return s.GetReservation(ctx, r.ID)
}

func (s *GormStore) SetReservationStatus(ctx context.Context, id uint, from, to models.ReservationStatus) (models.Reservation, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return models.Reservation{}, fmt.Errorf("set reservation %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Reservation{}, s.missOrConflict(ctx, &models.Reservation{}, id)
	}
	return s.GetReservation(ctx, id)
}

func (s *GormStore) GetTable(ctx context.Context, id uint) (models.Table, error) {
	var t models.Table
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return models.Table{}, translate(err, "get table %d", id)
	}
	return t, nil
}

func (s *GormStore) ListTables(ctx context.Context) ([]models.Table, error) {
	tables := []models.Table{}
	if err := s.db.WithContext(ctx).Order("table_name").Order("id").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (s *GormStore) InsertTable(ctx context.Context, t models.Table) (models.Table, error) {
	t.ID = 0
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return models.Table{}, fmt.Errorf("insert table: %w", err)
	}
	return t, nil
}

func (s *GormStore) SetTableReservation(ctx context.Context, tableID uint, expected, next *uint) (models.Table, error) {
	q := s.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", tableID)
	if expected == nil {
		q = q.Where("reservation_id IS NULL")
	} else {
		q = q.Where("reservation_id = ?", *expected)
	}

	var value any = gorm.Expr("NULL")
	if next != nil {
		value = *next
	}
	res := q.Update("reservation_id", value)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return models.Table{}, ErrConflict
		}
		return models.Table{}, fmt.Errorf("set table %d reservation: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Table{}, s.missOrConflict(ctx, &models.Table{}, tableID)
	}
	return s.GetTable(ctx, tableID)
}

// Atomically runs fn in a transaction. When fn fails the transaction is
// rolled back; a failed rollback is reported as ErrRollback.
func (s *GormStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&GormStore{db: tx, inTx: true}); err != nil {
		// database/sql has already rolled back a transaction whose context ended.
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w: %w", ErrRollback, errors.Join(err, rbErr))
		}
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RollsBack is true for the Store handed to an Atomically callback.
func (s *GormStore) RollsBack() bool {
	return s.inTx
}

// missOrConflict tells apart a missing row from one whose guard column no
// longer matched.
func (s *GormStore) missOrConflict(ctx context.Context, model any, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check row %d: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func translate(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
