package filter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmboard/internal/models"
)

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: 1, Title: "Fix login bug", Role: models.RoleDev, Priority: models.PriorityHigh, AssigneeID: models.RefTo(1)},
		{ID: 2, Title: "Write test plan", Role: models.RoleTester, Priority: models.PriorityMedium, AssigneeID: models.RefTo(2)},
		{ID: 3, Title: "Plan sprint review", Role: models.RolePM, Priority: models.PriorityLow},
		{ID: 4, Title: "Refactor BUG tracker", Role: models.RoleDev, Priority: models.PriorityMedium, AssigneeID: models.RefTo(1)},
	}
}

func ids(tasks []models.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestEmptySpecIsIdentity(t *testing.T) {
	tasks := sampleTasks()
	assert.False(t, Spec{}.Active())
	assert.Equal(t, tasks, Tasks(tasks, Spec{}))
}

func TestSearchIsCaseInsensitiveSubstringOnTitle(t *testing.T) {
	tasks := sampleTasks()
	got := Tasks(tasks, Spec{Search: "bug"})
	assert.Equal(t, []int64{1, 4}, ids(got))
	assert.LessOrEqual(t, len(got), len(tasks))
	for _, task := range got {
		assert.Contains(t, strings.ToLower(task.Title), "bug")
	}

	assert.Equal(t, []int64{2, 3}, ids(Tasks(tasks, Spec{Search: "PLAN"})))
	assert.Empty(t, Tasks(tasks, Spec{Search: "deploy"}))
}

func TestConstraintsAreAnded(t *testing.T) {
	tasks := sampleTasks()

	assert.Equal(t, []int64{1, 4}, ids(Tasks(tasks, Spec{Role: models.RoleDev})))
	assert.Equal(t, []int64{4}, ids(Tasks(tasks, Spec{Role: models.RoleDev, Priority: models.PriorityMedium})))
	assert.Equal(t, []int64{1}, ids(Tasks(tasks, Spec{AssigneeID: models.RefTo(1), Search: "login"})))
	assert.Empty(t, Tasks(tasks, Spec{Role: models.RolePM, AssigneeID: models.RefTo(2)}))
}

func TestUnassignedTasksNeverMatchAnAssignee(t *testing.T) {
	got := Tasks(sampleTasks(), Spec{AssigneeID: models.RefTo(0)})
	assert.Empty(t, got)
}

func TestTasksDoesNotModifyInput(t *testing.T) {
	tasks := sampleTasks()
	before := sampleTasks()
	_ = Tasks(tasks, Spec{Role: models.RoleTester})
	assert.Equal(t, before, tasks)
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec("dev", "", " 3 ", "Bug")
	require.NoError(t, err)
	assert.Equal(t, Spec{Role: models.RoleDev, AssigneeID: models.RefTo(3), Search: "Bug"}, spec)
	assert.True(t, spec.Active())

	spec, err = ParseSpec("", "", "", "")
	require.NoError(t, err)
	assert.False(t, spec.Active())

	_, err = ParseSpec("", "", "abc", "")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestMembersByRoleAndWorkload(t *testing.T) {
	members := []models.TeamMember{
		{ID: 1, Name: "Ada", Role: models.RoleDev, Capacity: 2},
		{ID: 2, Name: "Bob", Role: models.RoleTester, Capacity: 5},
		{ID: 3, Name: "Cy", Role: models.RoleDev, Capacity: 4},
	}
	tasks := []models.Task{
		{ID: 1, AssigneeID: models.RefTo(1)},
		{ID: 2, AssigneeID: models.RefTo(1)},
		{ID: 3, AssigneeID: models.RefTo(2)},
		{ID: 4, AssigneeID: models.RefTo(2)},
		{ID: 5, AssigneeID: models.RefTo(3)},
	}

	names := func(ms []models.TeamMember) []string {
		out := []string{}
		for _, m := range ms {
			out = append(out, m.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Ada", "Bob", "Cy"}, names(Members(members, tasks, MemberSpec{})))
	assert.Equal(t, []string{"Ada", "Cy"}, names(Members(members, tasks, MemberSpec{Role: models.RoleDev})))
	// Ada 100%, Bob 40%, Cy 25%.
	assert.Equal(t, []string{"Ada"}, names(Members(members, tasks, MemberSpec{Workload: WorkloadHigh})))
	assert.Equal(t, []string{"Bob"}, names(Members(members, tasks, MemberSpec{Workload: WorkloadMedium})))
	assert.Equal(t, []string{"Cy"}, names(Members(members, tasks, MemberSpec{Workload: WorkloadLow})))
	assert.Empty(t, Members(members, tasks, MemberSpec{Role: models.RoleTester, Workload: WorkloadLow}))
}

func TestParseWorkloadBand(t *testing.T) {
	b, err := ParseWorkloadBand("medium")
	require.NoError(t, err)
	assert.Equal(t, WorkloadMedium, b)

	_, err = ParseWorkloadBand("extreme")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestSpecJSONEchoesQueryNames(t *testing.T) {
	spec, err := ParseSpec("tester", "high", "4", "plan")
	require.NoError(t, err)

	raw, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"tester","priority":"high","assigneeId":4,"search":"plan"}`, string(raw))
}
