package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/model"
	"dispatch/internal/repository"
)

// memoryStore is an in-memory AssignmentStore. Transactions run one at a time
// against a copy of the rows and publish it on success.
type memoryStore struct {
	txMu     *sync.Mutex
	rows     map[uuid.UUID]model.Assignment
	projects map[uuid.UUID]model.Project
	seq      *int64
	inTx     bool

	calls int
	// failUpdate, when set, is returned by Update for that id.
	failUpdate map[uuid.UUID]error
}

var _ repository.AssignmentStore = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	var seq int64
	return &memoryStore{
		txMu:       &sync.Mutex{},
		rows:       map[uuid.UUID]model.Assignment{},
		projects:   map[uuid.UUID]model.Project{},
		seq:        &seq,
		failUpdate: map[uuid.UUID]error{},
	}
}

func (m *memoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.txMu.Lock()
	return m.txMu.Unlock
}

func (m *memoryStore) Transaction(ctx context.Context, fn func(tx repository.AssignmentStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.calls++

	tx := &memoryStore{
		txMu:       m.txMu,
		rows:       make(map[uuid.UUID]model.Assignment, len(m.rows)),
		projects:   m.projects,
		seq:        m.seq,
		inTx:       true,
		failUpdate: m.failUpdate,
	}
	for id, a := range m.rows {
		tx.rows[id] = a.Clone()
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.rows = tx.rows
	return nil
}

func (m *memoryStore) withProject(a model.Assignment) *model.Assignment {
	c := a.Clone()
	if p, ok := m.projects[c.ProjectID]; ok {
		c.Project = &p
	}
	return &c
}

func (m *memoryStore) Create(ctx context.Context, a *model.Assignment) error {
	defer m.lock()()
	m.calls++
	for _, existing := range m.rows {
		if existing.ProjectID == a.ProjectID && existing.ForemanID == a.ForemanID && existing.Date.Equal(a.Date) {
			return repository.ErrDuplicateSlot
		}
	}
	*m.seq++
	a.Seq = *m.seq
	m.rows[a.ID] = a.Clone()
	return nil
}

func (m *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	defer m.lock()()
	m.calls++
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrAssignmentNotFound
	}
	return m.withProject(a), nil
}

func (m *memoryStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	return m.GetByID(ctx, id)
}

func (m *memoryStore) List(ctx context.Context, f model.AssignmentFilter) ([]model.Assignment, error) {
	defer m.lock()()
	m.calls++
	var out []model.Assignment
	for _, a := range m.rows {
		if f.From != nil && a.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && a.Date.After(*f.To) {
			continue
		}
		if f.ForemanID != nil && a.ForemanID != *f.ForemanID {
			continue
		}
		if f.ProjectID != nil && a.ProjectID != *f.ProjectID {
			continue
		}
		out = append(out, *m.withProject(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (m *memoryStore) SlotTaken(ctx context.Context, projectID, foremanID uuid.UUID, date model.Date, exceptID uuid.UUID) (bool, error) {
	defer m.lock()()
	m.calls++
	for id, a := range m.rows {
		if id != exceptID && a.ProjectID == projectID && a.ForemanID == foremanID && a.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) NextSortOrder(ctx context.Context, foremanID uuid.UUID, date model.Date) (int, error) {
	defer m.lock()()
	m.calls++
	next := 0
	for _, a := range m.rows {
		if a.ForemanID == foremanID && a.Date.Equal(date) && a.SortOrder >= next {
			next = a.SortOrder + 1
		}
	}
	return next, nil
}

func (m *memoryStore) Update(ctx context.Context, id uuid.UUID, patch model.AssignmentPatch, meta model.WriteMeta) error {
	defer m.lock()()
	m.calls++
	if err, ok := m.failUpdate[id]; ok {
		return err
	}
	a, ok := m.rows[id]
	if !ok {
		return repository.ErrAssignmentNotFound
	}
	patch.Apply(&a)
	a.UpdatedAt = meta.At
	a.UpdatedBy = meta.By
	m.rows[id] = a
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	defer m.lock()()
	m.calls++
	if _, ok := m.rows[id]; !ok {
		return repository.ErrAssignmentNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryStore) snapshot() map[uuid.UUID]model.Assignment {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	out := make(map[uuid.UUID]model.Assignment, len(m.rows))
	for id, a := range m.rows {
		out[id] = a.Clone()
	}
	return out
}

// seed stores a directly, bypassing the service.
func (m *memoryStore) seed(a model.Assignment) model.Assignment {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	*m.seq++
	a.Seq = *m.seq
	m.rows[a.ID] = a.Clone()
	return a
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

// Now returns a strictly increasing time on every call.
func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type staticAuthorizer struct {
	allow bool
}

func (a staticAuthorizer) Check(ctx context.Context, role, object, action string) (bool, error) {
	return a.allow, nil
}
