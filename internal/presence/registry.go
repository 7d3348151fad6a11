// Package presence tracks which sessions have an assignment open for editing
// and fans changes out to connected clients. Presence is advisory: it never
// blocks a write.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/model"
)

// Session is one connected editor tab.
type Session struct {
	ID       string
	UserID   uuid.UUID
	UserName string
}

// Registry holds at most one editing entry per session.
type Registry struct {
	mu      sync.RWMutex
	editing map[string]model.EditingPresence
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		editing: make(map[string]model.EditingPresence),
		now:     time.Now,
	}
}

// StartEditing records that s is editing assignmentID, replacing whatever it
// was editing before. It returns the previous assignment id, or uuid.Nil.
func (r *Registry) StartEditing(s Session, assignmentID uuid.UUID) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.editing[s.ID].AssignmentID
	if prev == assignmentID {
		return prev
	}
	r.editing[s.ID] = model.EditingPresence{
		AssignmentID: assignmentID,
		SessionID:    s.ID,
		UserID:       s.UserID,
		UserName:     s.UserName,
		StartedAt:    r.now(),
	}
	return prev
}

// StopEditing clears the session's entry and returns what it was editing.
func (r *Registry) StopEditing(sessionID string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.editing[sessionID]
	if !ok {
		return uuid.Nil, false
	}
	delete(r.editing, sessionID)
	return entry.AssignmentID, true
}

// EditingUsers lists the other sessions editing assignmentID, oldest first.
func (r *Registry) EditingUsers(assignmentID uuid.UUID, exceptSession string) []model.EditingPresence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.EditingPresence{}
	for sid, entry := range r.editing {
		if sid != exceptSession && entry.AssignmentID == assignmentID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

func (r *Registry) IsBeingEdited(assignmentID uuid.UUID, exceptSession string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sid, entry := range r.editing {
		if sid != exceptSession && entry.AssignmentID == assignmentID {
			return true
		}
	}
	return false
}

// Snapshot returns every entry, ordered like EditingUsers.
func (r *Registry) Snapshot(exceptSession string) []model.EditingPresence {
	r.mu.RLock()
	out := make([]model.EditingPresence, 0, len(r.editing))
	for sid, entry := range r.editing {
		if sid != exceptSession {
			out = append(out, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.editing)
}

// Handle binds registry calls to one session.
type Handle struct {
	registry *Registry
	session  Session
}

func (r *Registry) For(s Session) *Handle {
	return &Handle{registry: r, session: s}
}

func (h *Handle) StartEditing(assignmentID uuid.UUID) uuid.UUID {
	return h.registry.StartEditing(h.session, assignmentID)
}

func (h *Handle) StopEditing() (uuid.UUID, bool) {
	return h.registry.StopEditing(h.session.ID)
}

func (h *Handle) EditingUsers(assignmentID uuid.UUID) []model.EditingPresence {
	return h.registry.EditingUsers(assignmentID, h.session.ID)
}

func (h *Handle) IsBeingEdited(assignmentID uuid.UUID) bool {
	return h.registry.IsBeingEdited(assignmentID, h.session.ID)
}
