package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/events"
	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/validation"
)

type TableService struct {
	deps Deps
}

func NewTableService(deps Deps) *TableService {
	return &TableService{deps: deps.withDefaults("tables")}
}

// Create adds a free table. Tables are occupied only by seating.
func (s *TableService) Create(ctx context.Context, fields validation.Fields) (models.Table, error) {
	in, err := Run(ctx, validation.TableInput{},
		func(_ context.Context, _ validation.TableInput) (validation.TableInput, error) {
			return validation.Table(fields)
		},
		func(_ context.Context, in validation.TableInput) (validation.TableInput, error) {
			if in.ReservationID != nil {
				return in, apperror.Rule(apperror.CodeOccupancyGuard,
					"a new table cannot be created occupied; seat reservation %d after creating it", *in.ReservationID)
			}
			return in, nil
		},
	)
	if err != nil {
		return models.Table{}, s.deps.observe(err)
	}

	table, err := s.deps.Store.InsertTable(ctx, models.Table{TableName: in.TableName, Capacity: in.Capacity})
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to create table: %w", err)
	}

	s.deps.Logger.WithFields(logrus.Fields{
		"table_id":   table.ID,
		"table_name": table.TableName,
		"capacity":   table.Capacity,
	}).Info("table created")
	s.deps.publish(ctx, events.Event{Type: events.TableCreated, TableID: table.ID})
	return table, nil
}

func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	return s.deps.Store.ListTables(ctx)
}

func (s *TableService) Get(ctx context.Context, id uint) (models.Table, error) {
	t, err := s.deps.Store.GetTable(ctx, id)
	if err != nil {
		return models.Table{}, notFound(err, "Table %d cannot be found.", id)
	}
	return t, nil
}
