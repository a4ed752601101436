package controller

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	baseController "github.com/david-fold-studio/life-sphere-habits/core/controller"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/service"
)

type NotificationController struct {
	baseController.BaseController
	service service.NotificationService
}

func NewNotificationController(service service.NotificationService) *NotificationController {
	return &NotificationController{
		BaseController: baseController.NewBaseController(),
		service:        service,
	}
}

// List returns the user's recent notifications.
// GET /api/v1/private/notifications
func (c *NotificationController) List(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUnauthorized, "invalid user", nil))
	}

	notifications, err := c.service.ListByUser(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, notifications, "notifications retrieved")
}

// MarkRead marks one notification as read.
// PATCH /api/v1/private/notifications/:id/read
func (c *NotificationController) MarkRead(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUnauthorized, "invalid user", nil))
	}

	notifID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidInput, "notification id is not a UUID", err))
	}

	if err := c.service.MarkRead(ctx.Request().Context(), userID, notifID); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, nil, "notification marked read")
}
