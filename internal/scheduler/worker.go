package scheduler

import (
	"context"
	"fmt"

	"rideshare_backend/platform/config"
	"rideshare_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ReviewEmailHandler delivers a queued review email.
type ReviewEmailHandler interface {
	DeliverVehicleReviewEmail(ctx context.Context, payload VehicleReviewEmailPayload) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	emails ReviewEmailHandler
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, emails ReviewEmailHandler, log *logger.Logger) (*Worker, error) {
	if log == nil {
		log = logger.NewNop()
	}
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		Logger: asynqLogger{log: log},
	})

	return newWorker(server, emails, log), nil
}

func newWorker(server *asynq.Server, emails ReviewEmailHandler, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		emails: emails,
		log:    log,
	}
	w.mux.HandleFunc(TaskVehicleReviewEmail, w.handleVehicleReviewEmail)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleVehicleReviewEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseVehicleReviewEmailPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.DriverEmail == "" {
		w.log.Warn("review email skipped, driver has no email", "vehicleId", payload.VehicleID)
		return nil
	}
	if w.emails == nil {
		return nil
	}
	return w.emails.DeliverVehicleReviewEmail(ctx, payload)
}

// asynqLogger routes asynq's own logging through the application logger.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
