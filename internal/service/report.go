package service

import (
	"context"
	"sort"

	"dispatch/internal/authz"
	"dispatch/internal/model"
)

// Resource kinds in a crew report.
const (
	ResourceWorker  = "worker"
	ResourceVehicle = "vehicle"
)

// CrewUsage counts the distinct days a worker or vehicle is effectively assigned.
type CrewUsage struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	Days        int    `json:"days"`
	Assignments int    `json:"assignments"`
}

// CrewReport aggregates effective crew and vehicles over [from, to]. Confirmed
// lists win over planned ones, even when empty.
func (s *AssignmentService) CrewReport(ctx context.Context, caller Caller, from, to model.Date) ([]CrewUsage, error) {
	if err := s.authorize(ctx, caller, authz.ActionRead); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() {
		return nil, validationError("from and to are required", nil)
	}
	if to.Before(from) {
		return nil, validationError("to must not be before from", nil)
	}

	assignments, err := s.store.List(ctx, model.AssignmentFilter{From: &from, To: &to})
	if err != nil {
		return nil, s.fail(err, "failed to build crew report")
	}
	return aggregateCrew(assignments), nil
}

func aggregateCrew(assignments []model.Assignment) []CrewUsage {
	type key struct{ kind, id string }
	usage := map[key]*CrewUsage{}
	days := map[key]map[string]bool{}

	add := func(kind string, ids []string, date string) {
		for _, id := range ids {
			k := key{kind, id}
			u, ok := usage[k]
			if !ok {
				u = &CrewUsage{Kind: kind, ID: id}
				usage[k] = u
				days[k] = map[string]bool{}
			}
			u.Assignments++
			days[k][date] = true
		}
	}
	for i := range assignments {
		a := &assignments[i]
		add(ResourceWorker, a.EffectiveWorkerIDs(), a.Date.String())
		add(ResourceVehicle, a.EffectiveVehicleIDs(), a.Date.String())
	}

	out := make([]CrewUsage, 0, len(usage))
	for k, u := range usage {
		u.Days = len(days[k])
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}
