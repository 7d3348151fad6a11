package export

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"dispatch/internal/model"
)

const (
	SheetName   = "Schedule"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{
	"Date", "Foreman", "Project", "Members", "Workers", "Vehicles",
	"Meeting time", "Estimated hours", "Dispatch confirmed", "Remarks",
}

// Schedule renders assignments as one row each, in the order given. Crew
// columns use the effective lists. foremen maps foreman ids to display names;
// unknown ids are written as is.
func Schedule(assignments []model.Assignment, foremen map[uuid.UUID]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, errors.Wrap(err, "failed to name sheet")
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return nil, errors.Wrap(err, "failed to write header")
		}
	}

	for i, a := range assignments {
		row := i + 2
		foreman := a.ForemanID.String()
		if name, ok := foremen[a.ForemanID]; ok {
			foreman = name
		}
		meeting := ""
		if a.MeetingTime != nil {
			meeting = *a.MeetingTime
		}

		values := []any{
			a.Date.String(),
			foreman,
			a.ProjectTitle(),
			a.MemberCount,
			strings.Join(a.EffectiveWorkerIDs(), ", "),
			strings.Join(a.EffectiveVehicleIDs(), ", "),
			meeting,
			a.EstimatedHours.InexactFloat64(),
			a.IsDispatchConfirmed,
			a.Remarks,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, errors.Wrapf(err, "failed to write row %d", row)
			}
		}
	}
	return f, nil
}

// FileName names an export covering [from, to].
func FileName(from, to model.Date) string {
	return fmt.Sprintf("schedule_%s_%s.xlsx", from.Time().Format("20060102"), to.Time().Format("20060102"))
}
