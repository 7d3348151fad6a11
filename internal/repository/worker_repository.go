package repository

import (
	"context"
	"errors"

	"dispatch/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

func (r *WorkerRepository) Create(ctx context.Context, worker *model.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}

func (r *WorkerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var worker model.Worker
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, err
	}
	return &worker, nil
}

// List returns active workers in row order. With foremenOnly set it returns the grid rows.
func (r *WorkerRepository) List(ctx context.Context, foremenOnly bool) ([]model.Worker, error) {
	var workers []model.Worker
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if foremenOnly {
		q = q.Where("is_foreman = ?", true)
	}
	err := q.Order("position").Order("name").Find(&workers).Error
	return workers, err
}

func (r *WorkerRepository) GetMaxPosition(ctx context.Context) (int, error) {
	var maxPosition struct {
		Max int
	}
	err := r.db.WithContext(ctx).Model(&model.Worker{}).
		Select("COALESCE(MAX(position), 0) as max").
		Scan(&maxPosition).Error

	return maxPosition.Max, err
}

// Reorder rewrites row positions for the given workers in one transaction.
func (r *WorkerRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			result := tx.Model(&model.Worker{}).Where("id = ?", id).Update("position", i)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrWorkerNotFound
			}
		}
		return nil
	})
}
