package service

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"dispatch/internal/model"
)

const meetingTimeLayout = "15:04"

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(model.Date); ok {
			return d.String()
		}
		return nil
	}, model.Date{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if id, ok := field.Interface().(uuid.UUID); ok && id != uuid.Nil {
			return id.String()
		}
		return ""
	}, uuid.UUID{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// itemPrefix labels messages with the batch index; index < 0 means a single record.
func itemPrefix(index int) string {
	if index < 0 {
		return ""
	}
	return fmt.Sprintf("item %d: ", index)
}

func indexMeta(index int, extra map[string]any) map[string]any {
	meta := map[string]any{}
	if index >= 0 {
		meta["index"] = index
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}

func (s *AssignmentService) validateInput(index int, in model.AssignmentInput) error {
	if err := s.validate.Struct(in); err != nil {
		return s.fieldError(index, err)
	}
	return nil
}

func (s *AssignmentService) validatePatch(index int, p model.AssignmentPatch) error {
	if err := s.validate.Struct(p); err != nil {
		return s.fieldError(index, err)
	}
	invalid := func(field, msg string) error {
		return validationError(itemPrefix(index)+field+" "+msg, indexMeta(index, map[string]any{"field": field}))
	}
	if p.ProjectID != nil && *p.ProjectID == uuid.Nil {
		return invalid("project_id", "must not be empty")
	}
	if p.ForemanID != nil && *p.ForemanID == uuid.Nil {
		return invalid("foreman_id", "must not be empty")
	}
	if p.Date != nil && p.Date.IsZero() {
		return invalid("date", "must not be empty")
	}
	if p.MeetingTime.Set && !p.MeetingTime.Null {
		if _, err := time.Parse(meetingTimeLayout, p.MeetingTime.Value); err != nil {
			return invalid("meeting_time", "must be HH:MM")
		}
	}
	for _, ids := range [][]string{p.ConfirmedWorkerIDs.Value, p.ConfirmedVehicleIDs.Value} {
		for _, id := range ids {
			if id == "" {
				return invalid("confirmed ids", "must not contain empty ids")
			}
		}
	}
	return nil
}

func (s *AssignmentService) fieldError(index int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationError(itemPrefix(index)+err.Error(), indexMeta(index, nil))
	}
	fe := verrs[0]
	field := fe.Field()
	return validationError(
		itemPrefix(index)+field+" "+describeRule(fe),
		indexMeta(index, map[string]any{"field": field}),
	)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be HH:MM"
	default:
		return "is invalid"
	}
}
