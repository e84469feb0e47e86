// Package services runs reservation and table operations: validation, rule
// checks, status transitions and writes, in that order.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/events"
	"github.com/yeremiapane/periodic-tables/metrics"
	"github.com/yeremiapane/periodic-tables/repository"
	"github.com/yeremiapane/periodic-tables/utils"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     repository.Store
	Publisher events.Publisher
	Metrics   *metrics.SeatingMetrics
	Logger    *logrus.Entry
	Now       func() time.Time
}

func (d Deps) withDefaults(component string) Deps {
	if d.Publisher == nil {
		d.Publisher = events.Discard{}
	}
	if d.Logger == nil {
		d.Logger = utils.Component(component)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// publish delivers e and logs failures; a lost event never fails the write.
func (d Deps) publish(ctx context.Context, e events.Event) {
	e.At = d.Now()
	if err := d.Publisher.Publish(ctx, e); err != nil {
		d.Logger.WithError(err).WithFields(logrus.Fields{
			"event":          e.Type,
			"reservation_id": e.ReservationID,
			"table_id":       e.TableID,
		}).Warn("failed to publish floor event")
	}
}

// observe counts rule rejections by code.
func (d Deps) observe(err error) error {
	if apperror.IsKind(err, apperror.KindRule) {
		d.Metrics.RecordRuleRejection(apperror.CodeOf(err))
	}
	return err
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(format, args...)
	}
	return err
}
