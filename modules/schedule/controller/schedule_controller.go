package controller

import (
	"time"

	"github.com/labstack/echo/v4"

	baseController "github.com/david-fold-studio/life-sphere-habits/core/controller"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/dto"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/service"
)

type ScheduleController struct {
	baseController.BaseController
	service service.ScheduleService
}

func NewScheduleController(service service.ScheduleService) *ScheduleController {
	return &ScheduleController{
		BaseController: baseController.NewBaseController(),
		service:        service,
	}
}

// GetWeek returns the merged week view for the authenticated user,
// optionally narrowed to one sphere.
// GET /api/v1/private/schedule/week?week_start=YYYY-MM-DD&sphere=deep-work
func (c *ScheduleController) GetWeek(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUnauthorized, "invalid user", nil))
	}

	weekStartStr := ctx.QueryParam("week_start")
	if weekStartStr == "" {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidInput, "week_start is required", nil))
	}
	weekStart, err := time.Parse("2006-01-02", weekStartStr)
	if err != nil {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidInput, "week_start must be YYYY-MM-DD", err))
	}

	week, err := c.service.WeekEvents(ctx.Request().Context(), userID, weekStart, ctx.QueryParam("sphere"))
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, week, "week retrieved")
}

// UpdateEvent commits the terminal state of a drag or resize gesture.
// PATCH /api/v1/private/schedule/events/:id
func (c *ScheduleController) UpdateEvent(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUnauthorized, "invalid user", nil))
	}

	eventID := ctx.Param("id")
	if eventID == "" {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidInput, "event id is required", nil))
	}

	var req dto.UpdateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}

	result, err := c.service.UpdateEvent(ctx.Request().Context(), userID, eventID, &req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, result, "event updated")
}

// DeleteEvent deletes a local event.
// DELETE /api/v1/private/schedule/events/:id
func (c *ScheduleController) DeleteEvent(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUnauthorized, "invalid user", nil))
	}

	eventID := ctx.Param("id")
	if eventID == "" {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidInput, "event id is required", nil))
	}

	if err := c.service.DeleteEvent(ctx.Request().Context(), userID, eventID); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, nil, "event deleted")
}
