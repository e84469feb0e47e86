package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/services"
	"github.com/yeremiapane/periodic-tables/utils"
	"github.com/yeremiapane/periodic-tables/validation"
)

type TableController struct {
	Tables  *services.TableService
	Seating *services.SeatingCoordinator
}

func NewTableController(tables *services.TableService, seating *services.SeatingCoordinator) *TableController {
	return &TableController{Tables: tables, Seating: seating}
}

// seating is the body returned by seat and clear.
type seating struct {
	Table       models.Table       `json:"table"`
	Reservation models.Reservation `json:"reservation"`
}

func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	fields, err := bindData(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	table, err := tc.Tables.Create(c.Request.Context(), fields)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

func (tc *TableController) GetTable(c *gin.Context) {
	id, err := idParam(c, "table_id", "Table")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	table, err := tc.Tables.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table details", table)
}

// SeatTable -> PUT /tables/:table_id/seat with {"data":{"reservation_id":N}}
func (tc *TableController) SeatTable(c *gin.Context) {
	id, err := idParam(c, "table_id", "Table")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	fields, err := bindData(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	reservationID, err := validation.ReservationID(fields)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	table, reservation, err := tc.Seating.Assign(c.Request.Context(), id, reservationID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation seated", seating{Table: table, Reservation: reservation})
}

// ClearTable -> DELETE /tables/:table_id/seat
func (tc *TableController) ClearTable(c *gin.Context) {
	id, err := idParam(c, "table_id", "Table")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	table, reservation, err := tc.Seating.Clear(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table cleared", seating{Table: table, Reservation: reservation})
}
