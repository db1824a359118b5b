package models

import "time"

// TaskInput holds the caller-supplied fields of a new task. The store assigns
// the id and timestamps.
type TaskInput struct {
	Title       string   `json:"title" validate:"required,notblank"`
	Description string   `json:"description"`
	Status      Status   `json:"status" validate:"omitempty,status"`
	Priority    Priority `json:"priority" validate:"omitempty,priority"`
	Role        Role     `json:"role" validate:"omitempty,role"`
	AssigneeID  Ref      `json:"assigneeId"`
	SprintID    Ref      `json:"sprintId"`
	Estimate    *float64 `json:"estimate" validate:"omitempty,gte=0"`
	Tags        []string `json:"tags" validate:"unique,dive,required,excludes=0x2C"`
}

// Normalize fills defaults for omitted enum fields.
func (in *TaskInput) Normalize() {
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.Role == "" {
		in.Role = RoleDev
	}
}

// Task builds the record the input describes, without id or timestamps.
func (in TaskInput) Task() Task {
	return Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Role:        in.Role,
		AssigneeID:  in.AssigneeID,
		SprintID:    in.SprintID,
		Estimate:    in.Estimate,
		Tags:        in.Tags,
	}.Clone()
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Title           *string    `json:"title" validate:"omitempty,notblank"`
	Description     *string    `json:"description"`
	Status          *Status    `json:"status" validate:"omitempty,status"`
	Priority        *Priority  `json:"priority" validate:"omitempty,priority"`
	Role            *Role      `json:"role" validate:"omitempty,role"`
	AssigneeID      RefPatch   `json:"assigneeId"`
	SprintID        RefPatch   `json:"sprintId"`
	Estimate        FloatPatch `json:"estimate"`
	Tags            *[]string  `json:"tags" validate:"omitempty,unique,dive,required,excludes=0x2C"`
	ExpectedVersion *int64     `json:"expectedVersion"`
}

// Apply merges the patch over t and returns the result. t is not modified.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.AssigneeID.Set {
		out.AssigneeID = p.AssigneeID.Ref
	}
	if p.SprintID.Set {
		out.SprintID = p.SprintID.Ref
	}
	if p.Estimate.Set {
		out.Estimate = p.Estimate.Value()
	}
	if p.Tags != nil {
		out.Tags = cloneStrings(*p.Tags)
	}
	return out
}

// SprintInput holds the fields of a new sprint.
type SprintInput struct {
	Name      string       `json:"name" validate:"required,notblank"`
	StartDate time.Time    `json:"startDate" validate:"required"`
	EndDate   time.Time    `json:"endDate" validate:"required,gtefield=StartDate"`
	Status    SprintStatus `json:"status" validate:"omitempty,sprintstatus"`
	Goals     string       `json:"goals"`
	TeamID    int64        `json:"teamId" validate:"gte=0"`
}

func (in *SprintInput) Normalize() {
	if in.Status == "" {
		in.Status = SprintPlanned
	}
	if in.TeamID == 0 {
		in.TeamID = 1
	}
}

func (in SprintInput) Sprint() Sprint {
	return Sprint{
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    in.Status,
		Goals:     in.Goals,
		TeamID:    in.TeamID,
	}
}

// SprintPatch is a partial sprint update.
type SprintPatch struct {
	Name            *string       `json:"name" validate:"omitempty,notblank"`
	StartDate       *time.Time    `json:"startDate"`
	EndDate         *time.Time    `json:"endDate"`
	Status          *SprintStatus `json:"status" validate:"omitempty,sprintstatus"`
	Goals           *string       `json:"goals"`
	TeamID          *int64        `json:"teamId" validate:"omitempty,gte=0"`
	ExpectedVersion *int64        `json:"expectedVersion"`
}

func (p SprintPatch) Apply(s Sprint) Sprint {
	out := s.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.StartDate != nil {
		out.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		out.EndDate = *p.EndDate
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Goals != nil {
		out.Goals = *p.Goals
	}
	if p.TeamID != nil {
		out.TeamID = *p.TeamID
	}
	return out
}

// TeamMemberInput holds the fields of a new team member.
type TeamMemberInput struct {
	Name     string   `json:"name" validate:"required,notblank"`
	Role     Role     `json:"role" validate:"required,role"`
	Avatar   string   `json:"avatar"`
	Capacity int      `json:"capacity" validate:"gt=0"`
	Skills   []string `json:"skills" validate:"unique,dive,required,excludes=0x2C"`
}

func (in TeamMemberInput) TeamMember() TeamMember {
	return TeamMember{
		Name:     in.Name,
		Role:     in.Role,
		Avatar:   in.Avatar,
		Capacity: in.Capacity,
		Skills:   in.Skills,
	}.Clone()
}

// TeamMemberPatch is a partial team member update.
type TeamMemberPatch struct {
	Name            *string   `json:"name" validate:"omitempty,notblank"`
	Role            *Role     `json:"role" validate:"omitempty,role"`
	Avatar          *string   `json:"avatar"`
	Capacity        *int      `json:"capacity" validate:"omitempty,gt=0"`
	Skills          *[]string `json:"skills" validate:"omitempty,unique,dive,required,excludes=0x2C"`
	ExpectedVersion *int64    `json:"expectedVersion"`
}

func (p TeamMemberPatch) Apply(m TeamMember) TeamMember {
	out := m.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Avatar != nil {
		out.Avatar = *p.Avatar
	}
	if p.Capacity != nil {
		out.Capacity = *p.Capacity
	}
	if p.Skills != nil {
		out.Skills = cloneStrings(*p.Skills)
	}
	return out
}
