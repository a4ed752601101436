package router

import (
	"github.com/labstack/echo/v4"

	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/controller"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	calendarRoutes := v1.Group("/private/calendar")
	calendarRoutes.Use(mw.AuthMiddleware())

	calendarRoutes.GET("/connection", r.controller.GetConnection)
	calendarRoutes.DELETE("/connection", r.controller.Disconnect)
}
