package commands

import (
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/core/task"
)

func TestSortOptions(t *testing.T) {
	key, dir, err := sortOptions{field: "due", desc: true}.parse()
	require.NoError(t, err)
	assert.Equal(t, query.SortDueDate, key)
	assert.Equal(t, query.Descending, dir)

	key, dir, err = sortOptions{}.parse()
	require.NoError(t, err)
	assert.Equal(t, query.SortCreatedAt, key)
	assert.Equal(t, query.Ascending, dir)

	_, _, err = sortOptions{field: "color"}.parse()
	assert.True(t, task.IsValidationError(err))
}

func TestFilterOptions_Predicates(t *testing.T) {
	p, err := filterOptions{
		priority:  "HIGH",
		status:    "in progress",
		dueBefore: "2025-03-10",
		title:     "  release* ",
	}.predicates()
	require.NoError(t, err)

	require.NotNil(t, p.Priority)
	assert.Equal(t, task.PriorityHigh, *p.Priority)
	require.NotNil(t, p.Status)
	assert.Equal(t, task.StatusInProgress, *p.Status)
	require.NotNil(t, p.DueBefore)
	assert.Equal(t, task.NewDate(2025, 3, 10), *p.DueBefore)
	assert.Nil(t, p.DueOn)
	assert.Nil(t, p.DueAfter)
	assert.Equal(t, "release*", p.Title)
}

func TestFilterOptions_Empty(t *testing.T) {
	p, err := filterOptions{}.predicates()
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestFilterOptions_ReportsEveryInvalidField(t *testing.T) {
	_, err := filterOptions{
		priority: "urgent",
		status:   "blocked",
		due:      "tomorrow",
		dueAfter: "2025-13-01",
		title:    "[unclosed",
	}.predicates()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	got := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		got = append(got, fe.Field)
	}
	assert.ElementsMatch(t, []string{"priority", "status", "due", "due-after", "title"}, got)
}

func TestTaskFieldFlags_PatchInput(t *testing.T) {
	f := taskFieldFlags{title: "new", due: "none"}

	in := f.patchInput(false)
	assert.Nil(t, in.Description, "absent flag keeps the description")
	assert.Equal(t, "new", in.Title)
	assert.Equal(t, task.ClearDue, in.DueDate)

	in = f.patchInput(true)
	require.NotNil(t, in.Description)
	assert.Empty(t, *in.Description, "explicit empty flag clears the description")
}

func TestChangedFields(t *testing.T) {
	due := task.NewDate(2025, 3, 1)
	current := task.Task{
		ID:          "abc",
		Title:       "Write report",
		Description: "draft",
		DueDate:     &due,
		Priority:    task.PriorityLow,
		Status:      task.StatusPending,
	}

	t.Run("unchanged form is an empty patch", func(t *testing.T) {
		patch, err := changedFields(current, fieldsOf(current)).Patch()
		require.NoError(t, err)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("only edited fields are sent", func(t *testing.T) {
		edited := fieldsOf(current)
		edited.priority = "High"
		edited.due = ""

		in := changedFields(current, edited)
		assert.Empty(t, in.Title)
		assert.Nil(t, in.Description)
		assert.Equal(t, "High", in.Priority)
		assert.Equal(t, task.ClearDue, in.DueDate)
		assert.Empty(t, in.Status)
	})
}

func TestValidateOptionalDate(t *testing.T) {
	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2025-01-31"))
	assert.Error(t, validateOptionalDate("31/01/2025"))
}

func TestCollectIssues(t *testing.T) {
	issues, err := collectIssues(nil)
	require.NoError(t, err)
	assert.Empty(t, issues)

	issues, err = collectIssues(criterio.NewFieldErrors("ui.theme", assert.AnError))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "ui.theme", issues[0].Field)

	_, err = collectIssues(assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
}
