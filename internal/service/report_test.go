package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/service"
)

func TestCrewReport_ConfirmedOverridesPlanned(t *testing.T) {
	f := newFixture(t)
	project := f.project("Riverside Tower")

	a := f.seed(project, uuid.New(), may1, 0)
	a.PlannedWorkerIDs = pq.StringArray{"w1", "w2"}
	a.PlannedVehicleIDs = pq.StringArray{"v1"}
	f.store.seed(a)

	b := f.seed(project, uuid.New(), may2, 0)
	b.PlannedWorkerIDs = pq.StringArray{"w1"}
	b.ConfirmedWorkerIDs = pq.StringArray{"w3"}
	b.ConfirmedVehicleIDs = pq.StringArray{}
	b.PlannedVehicleIDs = pq.StringArray{"v1"}
	f.store.seed(b)

	report, err := f.svc.CrewReport(context.Background(), dispatcher, may1, may2)

	require.NoError(t, err)
	assert.Equal(t, []service.CrewUsage{
		{Kind: service.ResourceVehicle, ID: "v1", Days: 1, Assignments: 1},
		{Kind: service.ResourceWorker, ID: "w1", Days: 1, Assignments: 1},
		{Kind: service.ResourceWorker, ID: "w2", Days: 1, Assignments: 1},
		{Kind: service.ResourceWorker, ID: "w3", Days: 1, Assignments: 1},
	}, report)
}

func TestCrewReport_RequiresRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CrewReport(context.Background(), dispatcher, may2, may1)
	requireKind(t, err, service.KindValidation)
}
