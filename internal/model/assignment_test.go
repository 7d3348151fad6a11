package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveIDs(t *testing.T) {
	tests := []struct {
		name      string
		planned   pq.StringArray
		confirmed pq.StringArray
		want      []string
	}{
		{"falls back to planned when unconfirmed", pq.StringArray{"a", "b"}, nil, []string{"a", "b"}},
		{"uses confirmed when set", pq.StringArray{"a", "b"}, pq.StringArray{"c"}, []string{"c"}},
		{"empty confirmed means nobody", pq.StringArray{"a"}, pq.StringArray{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assignment{
				PlannedWorkerIDs:    tt.planned,
				ConfirmedWorkerIDs:  tt.confirmed,
				PlannedVehicleIDs:   tt.planned,
				ConfirmedVehicleIDs: tt.confirmed,
			}
			assert.Equal(t, tt.want, a.EffectiveWorkerIDs())
			assert.Equal(t, tt.want, a.EffectiveVehicleIDs())
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	mt := "08:00"
	a := Assignment{ID: uuid.New(), PlannedWorkerIDs: pq.StringArray{"a"}, MeetingTime: &mt}
	c := a.Clone()
	c.PlannedWorkerIDs[0] = "z"
	*c.MeetingTime = "09:00"

	assert.Equal(t, "a", a.PlannedWorkerIDs[0])
	assert.Equal(t, "08:00", *a.MeetingTime)
}

func TestBuildKeepsConfirmedNilUnlessSent(t *testing.T) {
	in := AssignmentInput{ProjectID: uuid.New(), ForemanID: uuid.New(), PlannedWorkerIDs: []string{"w"}}
	a := in.Build(uuid.New())
	assert.Nil(t, a.ConfirmedWorkerIDs)
	assert.NotNil(t, a.PlannedVehicleIDs)

	in.ConfirmedWorkerIDs = []string{}
	a = in.Build(uuid.New())
	assert.NotNil(t, a.ConfirmedWorkerIDs)
}
