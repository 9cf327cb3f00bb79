package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/core/task"
	"github.com/colonyops/taskr/internal/printer"
)

// scriptedPrompter answers menu prompts from fixed values. A nil edit or an
// empty pick behaves like the user backing out of that form.
type scriptedPrompter struct {
	actions []menuAction
	edit    func(*taskFieldFlags)
	pick    string
	confirm bool
	filter  filterOptions

	pickTitles []string
}

func (s *scriptedPrompter) Action() (menuAction, error) {
	if len(s.actions) == 0 {
		return "", huh.ErrUserAborted
	}
	next := s.actions[0]
	s.actions = s.actions[1:]
	return next, nil
}

func (s *scriptedPrompter) TaskFields(fields *taskFieldFlags) error {
	if s.edit == nil {
		return huh.ErrUserAborted
	}
	s.edit(fields)
	return nil
}

func (s *scriptedPrompter) Sort() (query.SortKey, query.Direction, error) {
	return query.SortCreatedAt, query.Ascending, nil
}

func (s *scriptedPrompter) Filter() (filterOptions, error) {
	return s.filter, nil
}

func (s *scriptedPrompter) PickTask(title string, _ []task.Task) (string, error) {
	s.pickTitles = append(s.pickTitles, title)
	if s.pick == "" {
		return "", huh.ErrUserAborted
	}
	return s.pick, nil
}

func (s *scriptedPrompter) ConfirmDelete(task.Task) (bool, error) {
	return s.confirm, nil
}

func newTestMenu(t *testing.T, sp *scriptedPrompter) (*harness, *MenuCmd, context.Context, *bytes.Buffer) {
	t.Helper()
	h := newHarness(t)
	var out bytes.Buffer
	ctx := printer.NewContext(context.Background(), printer.New(&out, &out))
	return h, &MenuCmd{flags: h.flags, app: h.app, prompt: sp}, ctx, &out
}

func TestMenu_Update(t *testing.T) {
	sp := &scriptedPrompter{}
	h, menu, ctx, out := newTestMenu(t, sp)

	created, err := h.app.Tasks.Create(ctx, task.Input{
		Title:       "Write report",
		Description: "numbers",
		DueDate:     "2025-03-01",
		Priority:    "low",
	})
	require.NoError(t, err)

	sp.pick = created.ID
	sp.edit = func(f *taskFieldFlags) {
		assert.Equal(t, "Write report", f.title, "form is prefilled")
		assert.Equal(t, "2025-03-01", f.due)
		f.priority = task.PriorityHigh.String()
		f.due = ""
	}

	require.NoError(t, menu.dispatch(ctx, out, actionUpdate))
	assert.Contains(t, out.String(), "Task updated")
	assert.Equal(t, []string{"Task to update"}, sp.pickTitles)

	got, err := h.app.Tasks.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Nil(t, got.DueDate, "emptied due date is cleared")
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "numbers", got.Description)
	assert.Equal(t, task.StatusPending, got.Status)
}

func TestMenu_UpdateFormAborted(t *testing.T) {
	sp := &scriptedPrompter{}
	h, menu, ctx, out := newTestMenu(t, sp)

	created, err := h.app.Tasks.Create(ctx, task.Input{Title: "a", Priority: "medium"})
	require.NoError(t, err)
	sp.pick = created.ID

	err = menu.dispatch(ctx, out, actionUpdate)
	require.ErrorIs(t, err, huh.ErrUserAborted)

	got, err := h.app.Tasks.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestMenu_Delete(t *testing.T) {
	sp := &scriptedPrompter{}
	h, menu, ctx, out := newTestMenu(t, sp)

	created, err := h.app.Tasks.Create(ctx, task.Input{Title: "old chore", Priority: "low"})
	require.NoError(t, err)
	sp.pick = created.ID

	sp.confirm = false
	require.NoError(t, menu.dispatch(ctx, out, actionDelete))
	assert.Contains(t, out.String(), "Deletion cancelled")
	_, err = h.app.Tasks.Get(created.ID)
	require.NoError(t, err, "declined delete keeps the task")

	out.Reset()
	sp.confirm = true
	require.NoError(t, menu.dispatch(ctx, out, actionDelete))
	assert.Contains(t, out.String(), "Deleted "+created.ShortID()+" old chore")

	_, err = h.app.Tasks.Get(created.ID)
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestMenu_PickWithNoTasks(t *testing.T) {
	sp := &scriptedPrompter{pick: "anything"}
	_, menu, ctx, out := newTestMenu(t, sp)

	for _, action := range []menuAction{actionUpdate, actionComplete, actionDelete, actionShow} {
		err := menu.dispatch(ctx, out, action)
		require.Error(t, err, action)
		assert.Contains(t, err.Error(), "there are no tasks yet")
	}
	assert.Empty(t, sp.pickTitles, "no picker shown for an empty working set")
}

func TestMenu_Loop(t *testing.T) {
	sp := &scriptedPrompter{
		actions: []menuAction{actionShow, actionAdd, actionList, actionStats, actionExit, actionList},
		edit: func(f *taskFieldFlags) {
			f.title = "from the menu"
		},
	}
	h, menu, ctx, out := newTestMenu(t, sp)

	require.NoError(t, menu.loop(ctx, out))

	assert.Contains(t, out.String(), "there are no tasks yet", "action errors are printed and the menu continues")
	assert.Contains(t, out.String(), "Task created")
	assert.Contains(t, out.String(), "from the menu")
	assert.Contains(t, out.String(), "Statistics have not been computed yet")
	assert.Equal(t, []menuAction{actionList}, sp.actions, "exit stops the loop")

	created := h.only(t)
	assert.Equal(t, task.PriorityMedium, created.Priority, "add form defaults to medium")
	assert.Equal(t, task.StatusPending, created.Status)
}

func TestMenu_LoopEndsWhenAborted(t *testing.T) {
	sp := &scriptedPrompter{}
	_, menu, ctx, out := newTestMenu(t, sp)

	require.NoError(t, menu.loop(ctx, out))
	assert.Empty(t, out.String())
}
