package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeremiapane/periodic-tables/controllers"
	"github.com/yeremiapane/periodic-tables/floor"
	"github.com/yeremiapane/periodic-tables/middlewares"
	"github.com/yeremiapane/periodic-tables/services"
)

// Deps holds everything the routes are wired to.
type Deps struct {
	Reservations *services.ReservationService
	Tables       *services.TableService
	Seating      *services.SeatingCoordinator
	Floor        *floor.Hub
	Gatherer     prometheus.Gatherer
	RateLimiter  *middlewares.RateLimiter
	CORSOrigin   string
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigin))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if deps.Floor != nil {
		r.GET("/ws/floor", deps.Floor.ServeWS)
	}

	api := r.Group("/")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.RateLimit())
	}

	reservationCtrl := controllers.NewReservationController(deps.Reservations)
	reservations := api.Group("/reservations")
	{
		reservations.GET("", reservationCtrl.ListReservations)
		reservations.POST("", reservationCtrl.CreateReservation)
		reservations.GET("/:reservation_id", reservationCtrl.GetReservation)
		reservations.PUT("/:reservation_id", reservationCtrl.UpdateReservation)
		reservations.PUT("/:reservation_id/status", reservationCtrl.UpdateReservationStatus)
	}

	tableCtrl := controllers.NewTableController(deps.Tables, deps.Seating)
	tables := api.Group("/tables")
	{
		tables.GET("", tableCtrl.GetAllTables)
		tables.POST("", tableCtrl.CreateTable)
		tables.GET("/:table_id", tableCtrl.GetTable)
		tables.PUT("/:table_id/seat", tableCtrl.SeatTable)
		tables.DELETE("/:table_id/seat", tableCtrl.ClearTable)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  false,
			"message": "Path not found: " + c.Request.URL.Path,
		})
	})

	return r
}
