package authz

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{
		ModelPath:  filepath.Join("testdata", "model.conf"),
		PolicyPath: filepath.Join("testdata", "policy.csv"),
	})
	require.NoError(t, err)
	return svc
}

func TestServiceCheck(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		role, object, action string
		want                 bool
	}{
		{"viewer", ObjectAssignments, ActionRead, true},
		{"viewer", ObjectAssignments, ActionWrite, false},
		{"dispatcher", ObjectAssignments, ActionWrite, true},
		{"dispatcher", ObjectAssignments, ActionRead, true},
		{"dispatcher", ObjectDirectory, ActionWrite, false},
		{"admin", ObjectAssignments, ActionWrite, true},
		{"admin", ObjectDirectory, ActionWrite, true},
		{"admin", ObjectUsers, ActionWrite, true},
		{"", ObjectAssignments, ActionRead, false},
		{"intruder", ObjectAssignments, ActionWrite, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			allowed, err := svc.Check(context.Background(), tt.role, tt.object, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestNewServiceRequiresPaths(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)
}

func TestReloadPolicy(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.ReloadPolicy(context.Background()))
}
