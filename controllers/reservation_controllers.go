package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/services"
	"github.com/yeremiapane/periodic-tables/utils"
	"github.com/yeremiapane/periodic-tables/validation"
)

type ReservationController struct {
	Reservations *services.ReservationService
}

func NewReservationController(reservations *services.ReservationService) *ReservationController {
	return &ReservationController{Reservations: reservations}
}

// ListReservations -> ?date=YYYY-MM-DD for the day's board, ?mobile_number=
// for a phone search
func (rc *ReservationController) ListReservations(c *gin.Context) {
	ctx := c.Request.Context()

	if mobile, ok := c.GetQuery("mobile_number"); ok {
		reservations, err := rc.Reservations.SearchByPhone(ctx, mobile)
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
		return
	}

	date, ok := c.GetQuery("date")
	if !ok {
		utils.RespondAppError(c, apperror.Validation(apperror.CodeMissingField,
			"A 'date' or 'mobile_number' query parameter is required."))
		return
	}
	reservations, err := rc.Reservations.ListByDate(ctx, date)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	fields, err := bindData(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	reservation, err := rc.Reservations.Create(c.Request.Context(), fields)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", reservation)
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, err := idParam(c, "reservation_id", "Reservation")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	reservation, err := rc.Reservations.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation details", reservation)
}

func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, err := idParam(c, "reservation_id", "Reservation")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	fields, err := bindData(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	reservation, err := rc.Reservations.Update(c.Request.Context(), id, fields)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation updated successfully", reservation)
}

func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, err := idParam(c, "reservation_id", "Reservation")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	fields, err := bindData(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	status, err := validation.Status(fields)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	reservation, err := rc.Reservations.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation status updated", reservation)
}
