package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roomcraft/roomcraft/internal/usecase"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Job struct {
	ID         uuid.UUID       `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Type       string          `gorm:"column:type;type:varchar(255);NOT NULL"`
	OwnerID    uuid.UUID       `gorm:"column:owner_id;type:uuid;index"`
	Status     string          `gorm:"column:status;type:varchar(255);NOT NULL"`
	Payload    datatypes.JSON  `gorm:"column:payload"`
	Result     datatypes.JSON  `gorm:"column:result"`
	Error      string          `gorm:"column:error;type:text"`
	StartedAt  *time.Time      `gorm:"column:started_at"`
	FinishedAt *time.Time      `gorm:"column:finished_at"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
	DeletedAt  *gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (s *service) CreateJob(ctx context.Context, job usecase.Job) (usecase.Job, error) {
	j := Job{
		Type:    job.Type,
		OwnerID: job.OwnerID,
		Status:  job.Status,
		Payload: job.Payload,
	}
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Returning{}).
		Create(&j).Error; err != nil {
		return usecase.Job{}, err
	}

	return j.ConvertToUsecase(), nil
}

func (s *service) UpdateJob(ctx context.Context, job usecase.Job) (usecase.Job, error) {
	var updated Job
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Returning{}).
		Model(&updated).
		Where("id = ?", job.ID).
		Updates(Job{
			Status:     job.Status,
			Result:     job.Result,
			Error:      job.Error,
			StartedAt:  job.StartedAt,
			FinishedAt: job.FinishedAt,
		}).Error; err != nil {
		return usecase.Job{}, err
	}
	if updated.ID == uuid.Nil {
		return usecase.Job{}, jobNotFound(job.ID)
	}

	return updated.ConvertToUsecase(), nil
}

func (s *service) GetJobByID(ctx context.Context, id uuid.UUID) (usecase.Job, error) {
	var job Job
	err := s.db.
		WithContext(ctx).
		First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Job{}, jobNotFound(id)
	}
	if err != nil {
		return usecase.Job{}, err
	}

	return job.ConvertToUsecase(), nil
}

func jobNotFound(id uuid.UUID) usecase.ErrNotFound {
	return usecase.ErrNotFound{
		ID:      id,
		Code:    "job_not_found",
		Message: "job " + id.String() + " not found",
	}
}

func (j Job) ConvertToUsecase() usecase.Job {
	return usecase.Job{
		ID:         j.ID,
		Type:       j.Type,
		OwnerID:    j.OwnerID,
		Status:     j.Status,
		Payload:    j.Payload,
		Result:     j.Result,
		Error:      j.Error,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}
