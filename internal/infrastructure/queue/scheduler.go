package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"jamin-backend/internal/shared"
	"jamin-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddress string) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) RegisterMaintenanceJobs() error {
	return s.registerCleanupPendingUploadsJob()
}

// ================================================
// JOB: Cleanup Pending Uploads (Hourly)
// ================================================
// Pending upload markers là compensating records: mỗi recording được upload
// trước khi insert row. Một marker còn sống sau một giờ nghĩa là insert đã
// thất bại và object trong storage là orphan.
func (s *Scheduler) registerCleanupPendingUploadsJob() error {
	payload, err := json.Marshal(shared.CleanupPendingUploadsPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeCleanupPendingUpload, payload)

	_, err = s.scheduler.Register(
		"15 * * * *", // Hourly at minute 15
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register CleanupPendingUploads job", err)
		return err
	}

	logger.Info("✓ Registered CleanupPendingUploads: hourly", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
