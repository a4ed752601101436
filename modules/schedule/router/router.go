package router

import (
	"github.com/labstack/echo/v4"

	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/controller"
)

type ScheduleRouter struct {
	controller *controller.ScheduleController
}

func NewScheduleRouter(controller *controller.ScheduleController) *ScheduleRouter {
	return &ScheduleRouter{
		controller: controller,
	}
}

func (r *ScheduleRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	scheduleRoutes := v1.Group("/private/schedule")
	scheduleRoutes.Use(mw.AuthMiddleware())

	scheduleRoutes.GET("/week", r.controller.GetWeek)
	scheduleRoutes.PATCH("/events/:id", r.controller.UpdateEvent)
	scheduleRoutes.DELETE("/events/:id", r.controller.DeleteEvent)
}
