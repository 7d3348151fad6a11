package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dispatch/internal/model"
)

// AssignmentStore is the persistence surface the scheduling service runs on.
// Transaction runs fn against a store bound to one database transaction; the
// transaction commits when fn returns nil and rolls back otherwise.
type AssignmentStore interface {
	Transaction(ctx context.Context, fn func(tx AssignmentStore) error) error
	Create(ctx context.Context, a *model.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	List(ctx context.Context, filter model.AssignmentFilter) ([]model.Assignment, error)
	SlotTaken(ctx context.Context, projectID, foremanID uuid.UUID, date model.Date, exceptID uuid.UUID) (bool, error)
	NextSortOrder(ctx context.Context, foremanID uuid.UUID, date model.Date) (int, error)
	Update(ctx context.Context, id uuid.UUID, patch model.AssignmentPatch, meta model.WriteMeta) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ AssignmentStore = (*AssignmentRepository)(nil)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Transaction(ctx context.Context, fn func(tx AssignmentStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AssignmentRepository{db: tx})
	})
}

// Create inserts a new assignment. A taken slot surfaces as ErrDuplicateSlot.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateSlot
		}
		return errors.Wrap(err, "failed to create assignment")
	}
	return nil
}

// GetByID retrieves an assignment with its project
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var a model.Assignment
	result := r.db.WithContext(ctx).Preload("Project").First(&a, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get assignment")
	}
	return &a, nil
}

// GetForUpdate is GetByID with a row lock held until the transaction ends. Only
// meaningful inside Transaction.
func (r *AssignmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var a model.Assignment
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Project").
		First(&a, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to lock assignment")
	}
	return &a, nil
}

// List returns assignments ordered by date, then sort order, then insertion order.
func (r *AssignmentRepository) List(ctx context.Context, filter model.AssignmentFilter) ([]model.Assignment, error) {
	q := r.db.WithContext(ctx).Preload("Project")
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date <= ?", *filter.To)
	}
	if filter.ForemanID != nil {
		q = q.Where("foreman_id = ?", *filter.ForemanID)
	}
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}

	var assignments []model.Assignment
	result := q.Order("date").Order("sort_order").Order("seq").Find(&assignments)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to list assignments")
	}
	return assignments, nil
}

// SlotTaken reports whether another assignment already holds the slot.
func (r *AssignmentRepository) SlotTaken(ctx context.Context, projectID, foremanID uuid.UUID, date model.Date, exceptID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("project_id = ? AND foreman_id = ? AND date = ?", projectID, foremanID, date)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check assignment slot")
	}
	return count > 0, nil
}

// NextSortOrder returns the sort order that appends to the end of a grid cell.
func (r *AssignmentRepository) NextSortOrder(ctx context.Context, foremanID uuid.UUID, date model.Date) (int, error) {
	var next struct {
		Next int
	}
	err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Select("COALESCE(MAX(sort_order) + 1, 0) as next").
		Where("foreman_id = ? AND date = ?", foremanID, date).
		Scan(&next).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to read sort order")
	}
	return next.Next, nil
}

// Update writes the patched columns and stamps updated_at. An empty patch still
// advances updated_at.
func (r *AssignmentRepository) Update(ctx context.Context, id uuid.UUID, patch model.AssignmentPatch, meta model.WriteMeta) error {
	cols := patch.Columns()
	cols["updated_at"] = meta.At
	if meta.By != nil {
		cols["updated_by"] = *meta.By
	}

	result := r.db.WithContext(ctx).Model(&model.Assignment{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return ErrDuplicateSlot
		}
		return errors.Wrap(result.Error, "failed to update assignment")
	}
	if result.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// Delete removes an assignment by its ID
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Assignment{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete assignment")
	}
	if result.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}
