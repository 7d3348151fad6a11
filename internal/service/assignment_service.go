package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"dispatch/internal/authz"
	"dispatch/internal/metrics"
	"dispatch/internal/model"
	"dispatch/internal/repository"
)

// MaxBatchSize caps the number of elements in one batch request.
const MaxBatchSize = 100

// Caller is the authenticated user an operation runs on behalf of.
type Caller struct {
	UserID uuid.UUID
	Name   string
	Role   string
}

// Authorizer decides whether a role may perform an action on an object.
type Authorizer interface {
	Check(ctx context.Context, role, object, action string) (bool, error)
}

// BatchUpdateItem is one element of a batch update. When ExpectedUpdatedAt is
// set the element is only applied if the stored updatedAt still matches it.
type BatchUpdateItem struct {
	ID                uuid.UUID             `json:"id"`
	Patch             model.AssignmentPatch `json:"patch"`
	ExpectedUpdatedAt *time.Time            `json:"expected_updated_at,omitempty"`
}

// AssignmentService owns every write to assignments. Batch operations are
// all-or-nothing.
type AssignmentService struct {
	store    repository.AssignmentStore
	authz    Authorizer
	validate *validator.Validate
	logger   *logrus.Entry
	now      func() time.Time
	newID    func() uuid.UUID
}

type Option func(*AssignmentService)

// WithClock replaces the clock used to stamp createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *AssignmentService) { s.now = now }
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *AssignmentService) { s.newID = newID }
}

func NewAssignmentService(store repository.AssignmentStore, authorizer Authorizer, logger *logrus.Logger, opts ...Option) *AssignmentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &AssignmentService{
		store:    store,
		authz:    authorizer,
		validate: newValidator(),
		logger:   logger.WithField("component", "assignments"),
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the write timestamp at the precision postgres stores, so the
// value handed back to clients compares equal to what is read later.
func (s *AssignmentService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *AssignmentService) authorize(ctx context.Context, caller Caller, action string) error {
	if caller.UserID == uuid.Nil {
		return unauthorizedError()
	}
	allowed, err := s.authz.Check(ctx, caller.Role, authz.ObjectAssignments, action)
	if err != nil {
		return persistenceError(err, "failed to check permissions")
	}
	if !allowed {
		if action == authz.ActionWrite {
			return forbiddenError("change assignments")
		}
		return forbiddenError("view assignments")
	}
	return nil
}

// fail converts store errors into service errors and logs unexpected ones.
func (s *AssignmentService) fail(err error, msg string) error {
	var se *Error
	if errors.As(err, &se) {
		switch se.Kind {
		case KindConflict:
			metrics.RecordWriteConflict("stale")
		case KindDuplicateSlot:
			metrics.RecordWriteConflict("duplicate")
		}
		return se
	}
	s.logger.WithError(err).Error(msg)
	return persistenceError(err, msg)
}

func (s *AssignmentService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*model.Assignment, error) {
	if err := s.authorize(ctx, caller, authz.ActionRead); err != nil {
		return nil, err
	}
	a, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAssignmentNotFound) {
		return nil, notFoundError("assignment not found")
	}
	if err != nil {
		return nil, s.fail(err, "failed to load assignment")
	}
	return a, nil
}

func (s *AssignmentService) List(ctx context.Context, caller Caller, filter model.AssignmentFilter) ([]model.Assignment, error) {
	if err := s.authorize(ctx, caller, authz.ActionRead); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, validationError("to must not be before from", nil)
	}
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.fail(err, "failed to list assignments")
	}
	return out, nil
}

// Create inserts one assignment. Without an explicit sort order it is appended
// to the end of its grid cell.
func (s *AssignmentService) Create(ctx context.Context, caller Caller, in model.AssignmentInput) (*model.Assignment, error) {
	if err := s.authorize(ctx, caller, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := s.validateInput(-1, in); err != nil {
		return nil, err
	}
	created, err := s.insertAll(ctx, caller, []model.AssignmentInput{in}, false)
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// BatchCreate inserts 1..MaxBatchSize assignments in one transaction. The first
// invalid element or taken slot aborts the whole batch.
func (s *AssignmentService) BatchCreate(ctx context.Context, caller Caller, inputs []model.AssignmentInput) ([]model.Assignment, error) {
	started := time.Now()
	created, err := s.batchCreate(ctx, caller, inputs)
	s.record("batch_create", len(inputs), started, err)
	return created, err
}

func (s *AssignmentService) batchCreate(ctx context.Context, caller Caller, inputs []model.AssignmentInput) ([]model.Assignment, error) {
	if err := s.authorize(ctx, caller, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := checkBatchSize(len(inputs)); err != nil {
		return nil, err
	}
	seen := make(map[string]int, len(inputs))
	for i, in := range inputs {
		if err := s.validateInput(i, in); err != nil {
			return nil, err
		}
		if _, dup := seen[in.SlotKey()]; dup {
			return nil, duplicateSlotError(i, in.SlotKey())
		}
		seen[in.SlotKey()] = i
	}
	return s.insertAll(ctx, caller, inputs, true)
}

func (s *AssignmentService) insertAll(ctx context.Context, caller Caller, inputs []model.AssignmentInput, indexed bool) ([]model.Assignment, error) {
	at := s.stamp()
	by := caller.UserID
	created := make([]model.Assignment, 0, len(inputs))

	err := s.store.Transaction(ctx, func(tx repository.AssignmentStore) error {
		for i, in := range inputs {
			index := i
			if !indexed {
				index = -1
			}
			taken, err := tx.SlotTaken(ctx, in.ProjectID, in.ForemanID, in.Date, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				return duplicateSlotError(index, in.SlotKey())
			}

			a := in.Build(s.newID())
			if in.SortOrder == nil {
				next, err := tx.NextSortOrder(ctx, in.ForemanID, in.Date)
				if err != nil {
					return err
				}
				a.SortOrder = next
			}
			a.CreatedAt, a.UpdatedAt = at, at
			a.CreatedBy, a.UpdatedBy = &by, &by

			if err := tx.Create(ctx, &a); err != nil {
				if errors.Is(err, repository.ErrDuplicateSlot) {
					return duplicateSlotError(index, in.SlotKey())
				}
				return err
			}
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "failed to create assignments")
	}

	s.logger.WithFields(logrus.Fields{
		"count":   len(created),
		"user_id": caller.UserID,
	}).Info("assignments created")
	return created, nil
}

// Update applies a patch to one assignment and returns the stored result. When
// expected is set the write is rejected with a conflict if the record changed.
func (s *AssignmentService) Update(ctx context.Context, caller Caller, id uuid.UUID, patch model.AssignmentPatch, expected *time.Time) (*model.Assignment, error) {
	if err := s.authorize(ctx, caller, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := s.validatePatch(-1, patch); err != nil {
		return nil, err
	}

	meta := model.WriteMeta{At: s.stamp(), By: &caller.UserID}
	var updated *model.Assignment
	err := s.store.Transaction(ctx, func(tx repository.AssignmentStore) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if errors.Is(err, repository.ErrAssignmentNotFound) {
			return notFoundError("assignment not found")
		}
		if err != nil {
			return err
		}
		if expected != nil && !cur.UpdatedAt.Equal(*expected) {
			return conflictError(cur)
		}
		if err := s.applyPatch(ctx, tx, -1, id, cur, patch, meta); err != nil {
			return err
		}
		updated, err = tx.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail(err, "failed to update assignment")
	}
	return updated, nil
}

// BatchUpdate applies 1..MaxBatchSize patches in one transaction and returns
// how many were applied. Every lock token is checked before anything is
// written; one stale token or missing id rejects the whole batch.
func (s *AssignmentService) BatchUpdate(ctx context.Context, caller Caller, items []BatchUpdateItem) (int, error) {
	started := time.Now()
	n, err := s.batchUpdate(ctx, caller, items)
	s.record("batch_update", len(items), started, err)
	return n, err
}

func (s *AssignmentService) batchUpdate(ctx context.Context, caller Caller, items []BatchUpdateItem) (int, error) {
	if err := s.authorize(ctx, caller, authz.ActionWrite); err != nil {
		return 0, err
	}
	if err := checkBatchSize(len(items)); err != nil {
		return 0, err
	}
	seen := make(map[uuid.UUID]bool, len(items))
	for i, item := range items {
		if item.ID == uuid.Nil {
			return 0, validationError(itemPrefix(i)+"id is required", indexMeta(i, map[string]any{"field": "id"}))
		}
		if seen[item.ID] {
			return 0, validationError(
				fmt.Sprintf("%sassignment %s appears more than once", itemPrefix(i), item.ID),
				indexMeta(i, map[string]any{"id": item.ID.String()}),
			)
		}
		seen[item.ID] = true
		if err := s.validatePatch(i, item.Patch); err != nil {
			return 0, err
		}
	}
	return s.updateAll(ctx, caller, items)
}

func (s *AssignmentService) updateAll(ctx context.Context, caller Caller, items []BatchUpdateItem) (int, error) {
	meta := model.WriteMeta{At: s.stamp(), By: &caller.UserID}
	applied := 0

	err := s.store.Transaction(ctx, func(tx repository.AssignmentStore) error {
		current := make(map[uuid.UUID]*model.Assignment, len(items))
		load := func(index int, id uuid.UUID) (*model.Assignment, error) {
			if cur, ok := current[id]; ok {
				return cur, nil
			}
			cur, err := tx.GetForUpdate(ctx, id)
			if errors.Is(err, repository.ErrAssignmentNotFound) {
				return nil, missingAssignmentError(index, id)
			}
			if err != nil {
				return nil, err
			}
			current[id] = cur
			return cur, nil
		}

		for i, item := range items {
			if item.ExpectedUpdatedAt == nil {
				continue
			}
			cur, err := load(i, item.ID)
			if err != nil {
				return err
			}
			if !cur.UpdatedAt.Equal(*item.ExpectedUpdatedAt) {
				return conflictError(cur)
			}
		}

		for i, item := range items {
			var cur *model.Assignment
			if item.Patch.MovesSlot() {
				var err error
				if cur, err = load(i, item.ID); err != nil {
					return err
				}
			}
			if err := s.applyPatch(ctx, tx, i, item.ID, cur, item.Patch, meta); err != nil {
				if errors.Is(err, repository.ErrAssignmentNotFound) {
					return missingAssignmentError(i, item.ID)
				}
				return err
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(err, "failed to update assignments")
	}

	s.logger.WithFields(logrus.Fields{
		"count":   applied,
		"user_id": caller.UserID,
	}).Info("assignments updated")
	return applied, nil
}

// applyPatch writes one patch. cur is only required when the patch moves the
// record to another slot, which is checked against existing assignments first.
func (s *AssignmentService) applyPatch(ctx context.Context, tx repository.AssignmentStore, index int, id uuid.UUID, cur *model.Assignment, patch model.AssignmentPatch, meta model.WriteMeta) error {
	if patch.MovesSlot() && cur != nil {
		next := cur.Clone()
		patch.Apply(&next)
		if next.ProjectID != cur.ProjectID || next.ForemanID != cur.ForemanID || !next.Date.Equal(cur.Date) {
			taken, err := tx.SlotTaken(ctx, next.ProjectID, next.ForemanID, next.Date, cur.ID)
			if err != nil {
				return err
			}
			if taken {
				return duplicateSlotError(index, slotKey(next))
			}
		}
	}

	err := tx.Update(ctx, id, patch, meta)
	if errors.Is(err, repository.ErrDuplicateSlot) {
		return duplicateSlotError(index, "")
	}
	return err
}

// Delete removes one assignment.
func (s *AssignmentService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := s.authorize(ctx, caller, authz.ActionWrite); err != nil {
		return err
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrAssignmentNotFound) {
		return notFoundError("assignment not found")
	}
	if err != nil {
		return s.fail(err, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) record(op string, size int, started time.Time, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case KindOf(err) == KindPersistence:
		result = metrics.ResultFailed
	default:
		result = metrics.ResultRejected
	}
	metrics.RecordBatch(op, result, size, time.Since(started))
}

func checkBatchSize(n int) error {
	if n == 0 {
		return validationError("batch must contain at least one item", nil)
	}
	if n > MaxBatchSize {
		return validationError(
			fmt.Sprintf("batch may contain at most %d items, got %d", MaxBatchSize, n),
			map[string]any{"max": MaxBatchSize, "size": n},
		)
	}
	return nil
}

func missingAssignmentError(index int, id uuid.UUID) *Error {
	return validationError(
		fmt.Sprintf("%sassignment %s does not exist", itemPrefix(index), id),
		indexMeta(index, map[string]any{"id": id.String()}),
	)
}

func slotKey(a model.Assignment) string {
	return a.ProjectID.String() + "/" + a.ForemanID.String() + "/" + a.Date.String()
}
