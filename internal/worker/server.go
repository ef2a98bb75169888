package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/repository"
	"github.com/kunal0586/LangoLink/internal/tasks"
)

// WorkerServer 封装了 Asynq Worker Server 的启动和关闭逻辑
type WorkerServer struct {
	server    *asynq.Server
	log       *logrus.Entry
	roomRepo  repository.RoomRepository
	stateRepo repository.StateRepository
	maxIdle   time.Duration
}

// NewWorkerServer 创建一个新的 WorkerServer 实例。
// maxIdle 是 room:sweep 判定房间不活跃的阈值。
func NewWorkerServer(redisOpt asynq.RedisClientOpt, roomRepo repository.RoomRepository, stateRepo repository.StateRepository, maxIdle time.Duration, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
				tasks.QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &WorkerServer{
		server:    server,
		log:       logEntry,
		roomRepo:  roomRepo,
		stateRepo: stateRepo,
		maxIdle:   maxIdle,
	}
}

// Start 运行 Worker Server。应该在单独的 goroutine 中调用。
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()

	roomHandler := NewRoomMaintenanceHandler(ws.roomRepo, ws.stateRepo, ws.maxIdle)
	mux.HandleFunc(tasks.TypeRoomTouch, roomHandler.ProcessTouchTask)
	mux.HandleFunc(tasks.TypeRoomSweep, roomHandler.ProcessSweepTask)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown 优雅地关闭 Worker Server
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
