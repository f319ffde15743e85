package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/jobs"
)

// Background job types handled by SyncJobHandler.
const (
	JobInitializeSystem = "initialize_system"
	JobSyncStudent      = "sync_student"
)

type syncRunner interface {
	InitializeSystem(ctx context.Context, force bool) (*models.Result, error)
	SyncStudent(ctx context.Context, id int64) (*models.Student, error)
}

// NewInitializeJob builds a queued import request.
func NewInitializeJob(force bool) jobs.Job {
	return jobs.Job{ID: uuid.NewString(), Type: JobInitializeSystem, Payload: force}
}

// NewSyncStudentJob builds a queued single-student refresh.
func NewSyncStudentJob(id int64) jobs.Job {
	return jobs.Job{ID: uuid.NewString(), Type: JobSyncStudent, Payload: id}
}

// SyncJobHandler runs import jobs. An upstream failure is returned as an error
// so the queue retries it with backoff.
func SyncJobHandler(runner syncRunner, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case JobInitializeSystem:
			force, _ := job.Payload.(bool)
			result, err := runner.InitializeSystem(ctx, force)
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("%s", result.Message)
			}
			logger.Info("background import finished", zap.String("job_id", job.ID), zap.String("kind", string(result.Kind)), zap.String("message", result.Message))
			return nil
		case JobSyncStudent:
			id, ok := job.Payload.(int64)
			if !ok {
				logger.Error("sync job without student id", zap.String("job_id", job.ID))
				return nil
			}
			_, err := runner.SyncStudent(ctx, id)
			return err
		default:
			logger.Warn("unknown job type", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
	}
}
