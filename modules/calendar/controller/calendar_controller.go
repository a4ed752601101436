package controller

import (
	"github.com/labstack/echo/v4"

	baseController "github.com/david-fold-studio/life-sphere-habits/core/controller"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/service"
)

type CalendarController struct {
	baseController.BaseController
	service service.CalendarService
}

func NewCalendarController(service service.CalendarService) *CalendarController {
	return &CalendarController{
		BaseController: baseController.NewBaseController(),
		service:        service,
	}
}

// GetConnection returns the current user's provider connection.
// GET /api/v1/private/calendar/connection
func (c *CalendarController) GetConnection(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUnauthorized, "invalid user", nil))
	}

	conn, err := c.service.GetConnection(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, conn, "connection retrieved")
}

// Disconnect revokes the provider grant and removes the connection.
// DELETE /api/v1/private/calendar/connection
func (c *CalendarController) Disconnect(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUnauthorized, "invalid user", nil))
	}

	if err := c.service.Disconnect(ctx.Request().Context(), userID); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, nil, "calendar disconnected")
}
