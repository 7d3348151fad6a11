package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func fixedRegistry() *Registry {
	r := NewRegistry()
	tick := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	r.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
	return r
}

func TestStartEditingReplacesPreviousEntry(t *testing.T) {
	r := fixedRegistry()
	s := Session{ID: "s1", UserID: uuid.New(), UserName: "Sato"}
	x, y := uuid.New(), uuid.New()

	assert.Equal(t, uuid.Nil, r.StartEditing(s, x))
	assert.Equal(t, x, r.StartEditing(s, y))

	assert.Empty(t, r.EditingUsers(x, ""))
	editors := r.EditingUsers(y, "")
	if assert.Len(t, editors, 1) {
		assert.Equal(t, "Sato", editors[0].UserName)
		assert.Equal(t, "s1", editors[0].SessionID)
	}
	assert.Equal(t, 1, r.Len())
}

func TestEditingUsersExcludesOwnSession(t *testing.T) {
	r := fixedRegistry()
	x := uuid.New()
	me := r.For(Session{ID: "me", UserName: "Me"})
	other := r.For(Session{ID: "other", UserName: "Other"})

	me.StartEditing(x)
	assert.False(t, me.IsBeingEdited(x))
	assert.Empty(t, me.EditingUsers(x))

	other.StartEditing(x)
	assert.True(t, me.IsBeingEdited(x))
	editors := me.EditingUsers(x)
	if assert.Len(t, editors, 1) {
		assert.Equal(t, "Other", editors[0].UserName)
	}
}

func TestSameUserInTwoTabsSeesTheOtherTab(t *testing.T) {
	r := fixedRegistry()
	user := uuid.New()
	x := uuid.New()
	tab1 := r.For(Session{ID: "tab1", UserID: user})
	tab2 := r.For(Session{ID: "tab2", UserID: user})

	tab1.StartEditing(x)

	assert.True(t, tab2.IsBeingEdited(x))
}

func TestStopEditing(t *testing.T) {
	r := fixedRegistry()
	x := uuid.New()
	h := r.For(Session{ID: "s1"})

	_, ok := h.StopEditing()
	assert.False(t, ok)

	h.StartEditing(x)
	prev, ok := h.StopEditing()
	assert.True(t, ok)
	assert.Equal(t, x, prev)
	assert.False(t, r.IsBeingEdited(x, ""))
}

func TestEditorsOrderedByStart(t *testing.T) {
	r := fixedRegistry()
	x := uuid.New()
	r.StartEditing(Session{ID: "b", UserName: "first"}, x)
	r.StartEditing(Session{ID: "a", UserName: "second"}, x)

	editors := r.EditingUsers(x, "")
	assert.Equal(t, []string{"first", "second"}, []string{editors[0].UserName, editors[1].UserName})
	assert.Len(t, r.Snapshot("a"), 1)
}
