package commands

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/taskr/internal/core/stats"
	"github.com/colonyops/taskr/internal/core/styles"
	"github.com/colonyops/taskr/internal/core/task"
)

const (
	timeLayout    = "2006-01-02 15:04:05"
	markdownWidth = 80
)

// writeTable prints tasks as an aligned table. Rows are aligned on plain text
// first and styled afterwards so escape codes never skew column widths.
func writeTable(w io.Writer, tasks []task.Task) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tSTATUS\tDUE")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n",
			t.ShortID(), styles.StatusIcon(t.Status), t.Title, t.Priority, t.Status, dueLabel(t.DueDate))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		style := styles.Header
		if i > 0 {
			style = rowStyle(tasks[i-1])
		}
		if _, err := fmt.Fprintln(w, style.Render(line)); err != nil {
			return err
		}
	}
	return nil
}

func rowStyle(t task.Task) lipgloss.Style {
	if t.Status == task.StatusCompleted {
		return styles.TextMuted
	}
	return styles.Priority(t.Priority)
}

func dueLabel(d *task.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// writeDetail prints every field of t. The description is rendered as
// markdown.
func writeDetail(w io.Writer, t task.Task) error {
	field := func(label, value string) {
		_, _ = fmt.Fprintln(w, styles.Label.Render(label)+value)
	}

	field("ID", t.ID)
	field("Title", styles.TextBold.Render(t.Title))
	field("Priority", styles.Priority(t.Priority).Render(t.Priority.String()))
	field("Status", styles.Status(t.Status).Render(styles.StatusIcon(t.Status)+" "+t.Status.String()))
	field("Due", dueLabel(t.DueDate))
	field("Created", t.CreatedAt.Local().Format(timeLayout))

	if t.Description == "" {
		field("Description", styles.TextMuted.Render("(none)"))
		return nil
	}

	field("Description", "")
	rendered, err := renderMarkdown(t.Description)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}

func renderMarkdown(src string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return out, nil
}

func writeStats(w io.Writer, st stats.Statistics) {
	row := func(label string, value any) {
		_, _ = fmt.Fprintf(w, "%s%v\n", styles.Label.Render(label), value)
	}

	_, _ = fmt.Fprintln(w, styles.Header.Render("Task statistics"))
	row("Total", st.Total)
	row("Pending", st.Pending)
	row("In Progress", st.InProgress)
	row("Completed", st.Completed)
	row("High pending", styles.TextError.Render(fmt.Sprint(st.HighPending)))
	row("Overdue", styles.TextWarning.Render(fmt.Sprint(st.Overdue)))
	row("Completion", fmt.Sprintf("%.1f%%", st.CompletionRate*100))
	row("Computed at", styles.TextMuted.Render(st.ComputedAt.Local().Format(timeLayout)))
}
