package schedule

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/david-fold-studio/life-sphere-habits/core/cache"
	"github.com/david-fold-studio/life-sphere-habits/core/database"
	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	calendarService "github.com/david-fold-studio/life-sphere-habits/modules/calendar/service"
	notifService "github.com/david-fold-studio/life-sphere-habits/modules/notification/service"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/controller"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/repository"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/router"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/service"
)

func Init(
	e *echo.Echo,
	db database.IDatabase,
	cacheStore cache.Cache,
	calendarSvc calendarService.CalendarService,
	notifSvc notifService.NotificationService,
	location *time.Location,
) {
	// Initialize layers
	repo := repository.NewScheduleRepository(db)
	scheduleService := service.NewScheduleService(repo, calendarSvc, cacheStore, notifSvc, location)
	scheduleController := controller.NewScheduleController(scheduleService)

	// Get middleware for auth
	mw := middleware.NewMiddleware()

	// Setup routes
	router.NewScheduleRouter(scheduleController).Setup(e, mw)
}
