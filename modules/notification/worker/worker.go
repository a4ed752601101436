package worker

import (
	"github.com/hibiken/asynq"

	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/service"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/tasks"
)

// Worker runs the background task server alongside the HTTP server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisOpt asynq.RedisClientOpt, notifService service.NotificationService) *Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"notifications": 10,
			"default":       1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeEventUpdate, notifService.HandleEventUpdateTask)

	return &Worker{server: server, mux: mux}
}

func (w *Worker) Start() error {
	logger.Info("Starting background worker")
	return w.server.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
