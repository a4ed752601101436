package notification

import (
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"

	"github.com/david-fold-studio/life-sphere-habits/core/database"
	"github.com/david-fold-studio/life-sphere-habits/core/middleware"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/controller"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/repository"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/router"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/service"
)

func Init(e *echo.Echo, db database.IDatabase, client *asynq.Client) service.NotificationService {
	// Initialize layers
	repo := repository.NewNotificationRepository(db)
	notificationService := service.NewNotificationService(repo, client)
	notificationController := controller.NewNotificationController(notificationService)

	// Get middleware for auth
	mw := middleware.NewMiddleware()

	// Setup routes
	router.NewNotificationRouter(notificationController).Setup(e, mw)

	return notificationService
}
