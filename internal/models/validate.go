package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return Priority(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("sprintstatus", func(fl validator.FieldLevel) bool {
		return SprintStatus(fl.Field().String()).Valid()
	})
}

// Validate checks struct tags on an input or patch value. Failures wrap
// ErrInvalidArgument.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// CheckTask enforces record-level invariants on a merged task.
func CheckTask(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: task title must not be empty", ErrInvalidArgument)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown task status %q", ErrInvalidArgument, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, t.Priority)
	}
	if !t.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, t.Role)
	}
	if t.Estimate != nil && *t.Estimate < 0 {
		return fmt.Errorf("%w: estimate must not be negative", ErrInvalidArgument)
	}
	return checkList("tags", t.Tags)
}

// CheckSprint enforces record-level invariants on a merged sprint.
func CheckSprint(s Sprint) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: sprint name must not be empty", ErrInvalidArgument)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown sprint status %q", ErrInvalidArgument, s.Status)
	}
	if s.EndDate.Before(s.StartDate) {
		return fmt.Errorf("%w: sprint ends before it starts", ErrInvalidArgument)
	}
	return nil
}

// CheckTeamMember enforces record-level invariants on a merged member.
func CheckTeamMember(m TeamMember) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: member name must not be empty", ErrInvalidArgument)
	}
	if !m.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, m.Role)
	}
	if m.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidArgument)
	}
	return checkList("skills", m.Skills)
}

// checkList rejects duplicates and items the comma-joined storage form
// cannot round-trip.
func checkList(field string, items []string) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == "" {
			return fmt.Errorf("%w: %s must not contain empty items", ErrInvalidArgument, field)
		}
		if strings.Contains(item, ",") {
			return fmt.Errorf("%w: %s item %q contains a comma", ErrInvalidArgument, field, item)
		}
		if _, dup := seen[item]; dup {
			return fmt.Errorf("%w: duplicate %s item %q", ErrInvalidArgument, field, item)
		}
		seen[item] = struct{}{}
	}
	return nil
}
