package calendar

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/david-fold-studio/life-sphere-habits/core/database"
	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/controller"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/repository"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/router"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/service"
)

func Init(e *echo.Echo, db database.IDatabase, location *time.Location) service.CalendarService {
	// Initialize layers
	repo := repository.NewCalendarRepository(db)
	calendarService := service.NewCalendarService(repo, location)
	calendarController := controller.NewCalendarController(calendarService)

	// Get middleware for auth
	mw := middleware.NewMiddleware()

	// Setup routes
	router.NewCalendarRouter(calendarController).Setup(e, mw)

	return calendarService
}
