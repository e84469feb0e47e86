package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/periodic-tables/controllers"
	"github.com/yeremiapane/periodic-tables/database"
	"github.com/yeremiapane/periodic-tables/metrics"
	"github.com/yeremiapane/periodic-tables/repository"
	"github.com/yeremiapane/periodic-tables/rules"
	"github.com/yeremiapane/periodic-tables/services"
	"github.com/yeremiapane/periodic-tables/utils"
)

// Saturday 2026-10-17 14:20 UTC.
var fixedNow = time.Date(2026, 10, 17, 14, 20, 0, 0, time.UTC)

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type reservationBody struct {
	ReservationID   uint   `json:"reservation_id"`
	FirstName       string `json:"first_name"`
	MobileNumber    string `json:"mobile_number"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	People          int    `json:"people"`
	Status          string `json:"status"`
}

type tableBody struct {
	TableID       uint   `json:"table_id"`
	TableName     string `json:"table_name"`
	Capacity      int    `json:"capacity"`
	ReservationID *uint  `json:"reservation_id"`
}

type seatingBody struct {
	Table       tableBody       `json:"table"`
	Reservation reservationBody `json:"reservation"`
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

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	deps := services.Deps{
		Store:   repository.NewGormStore(setupTestDB(t)),
		Metrics: metrics.NewSeatingMetricsWithRegisterer(prometheus.NewRegistry()),
		Now:     func() time.Time { return fixedNow },
	}
	cfg := rules.DefaultConfig()
	cfg.Location = time.UTC
	engine := rules.NewEngine(cfg).WithClock(func() time.Time { return fixedNow })

	reservationCtrl := controllers.NewReservationController(services.NewReservationService(deps, engine))
	tableCtrl := controllers.NewTableController(services.NewTableService(deps), services.NewSeatingCoordinator(deps))

	router := gin.New()
	router.GET("/reservations", reservationCtrl.ListReservations)
	router.POST("/reservations", reservationCtrl.CreateReservation)
	router.GET("/reservations/:reservation_id", reservationCtrl.GetReservation)
	router.PUT("/reservations/:reservation_id", reservationCtrl.UpdateReservation)
	router.PUT("/reservations/:reservation_id/status", reservationCtrl.UpdateReservationStatus)
	router.GET("/tables", tableCtrl.GetAllTables)
	router.POST("/tables", tableCtrl.CreateTable)
	router.GET("/tables/:table_id", tableCtrl.GetTable)
	router.PUT("/tables/:table_id/seat", tableCtrl.SeatTable)
	router.DELETE("/tables/:table_id/seat", tableCtrl.ClearTable)
	return router
}

func do(t *testing.T, router *gin.Engine, method, url string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func data(fields map[string]any) map[string]any {
	return map[string]any{"data": fields}
}

func annLee() map[string]any {
	return map[string]any{
		"first_name":       "Ann",
		"last_name":        "Lee",
		"mobile_number":    "800-555-0100",
		"reservation_date": "2026-10-21",
		"reservation_time": "18:00",
		"people":           4,
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
