package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
)

// ParsePriority normalizes user input ("high", " MEDIUM ") to a Priority.
func ParsePriority(s string) (Priority, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Priorities {
		if strings.ToLower(string(p)) == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("priority must be one of: Low, Medium, High (got %q)", s)
}

// ParseStatus normalizes user input ("in progress", "in_progress") to a Status.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "pending":
		return StatusPending, nil
	case "in progress", "in-progress", "in_progress", "inprogress":
		return StatusInProgress, nil
	case "completed", "complete", "done":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("status must be one of: Pending, In Progress, Completed (got %q)", s)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected format YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// ValidateTitle trims the title and rejects empty values.
func ValidateTitle(s string) (string, error) {
	title := strings.TrimSpace(s)
	if title == "" {
		return "", errors.New("title cannot be empty")
	}
	return title, nil
}

// Input is raw, unvalidated user input for a new task.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// Fields validates the input and converts it to Fields. Every invalid field is
// reported; the returned error is a criterio.FieldErrors.
func (in Input) Fields() (Fields, error) {
	var (
		errs criterio.FieldErrorsBuilder
		out  Fields
		err  error
	)

	if out.Title, err = ValidateTitle(in.Title); err != nil {
		errs = errs.Append("title", err)
	}

	out.Description = strings.TrimSpace(in.Description)

	if strings.TrimSpace(in.DueDate) != "" {
		d, err := ParseDate(in.DueDate)
		if err != nil {
			errs = errs.Append("due_date", err)
		} else {
			out.DueDate = &d
		}
	}

	if strings.TrimSpace(in.Priority) == "" {
		errs = errs.Append("priority", errors.New("priority is required"))
	} else if out.Priority, err = ParsePriority(in.Priority); err != nil {
		errs = errs.Append("priority", err)
	}

	out.Status = StatusPending
	if strings.TrimSpace(in.Status) != "" {
		if out.Status, err = ParseStatus(in.Status); err != nil {
			errs = errs.Append("status", err)
		}
	}

	if err := errs.ToError(); err != nil {
		return Fields{}, err
	}
	return out, nil
}

// ClearDue is the due date value that removes an existing due date.
const ClearDue = "none"

// PatchInput is raw user input for an update. Empty strings keep the current
// value; a nil Description keeps it, an empty one clears it.
type PatchInput struct {
	Title       string
	Description *string
	DueDate     string
	Priority    string
	Status      string
}

// Patch validates the input and converts it to a Patch.
func (in PatchInput) Patch() (Patch, error) {
	var (
		errs criterio.FieldErrorsBuilder
		out  Patch
	)

	if strings.TrimSpace(in.Title) != "" {
		title, err := ValidateTitle(in.Title)
		if err != nil {
			errs = errs.Append("title", err)
		} else {
			out.Title = &title
		}
	}

	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		out.Description = &desc
	}

	switch due := strings.TrimSpace(in.DueDate); {
	case due == "":
	case strings.EqualFold(due, ClearDue):
		out.ClearDueDate = true
	default:
		d, err := ParseDate(due)
		if err != nil {
			errs = errs.Append("due_date", err)
		} else {
			out.DueDate = &d
		}
	}

	if strings.TrimSpace(in.Priority) != "" {
		p, err := ParsePriority(in.Priority)
		if err != nil {
			errs = errs.Append("priority", err)
		} else {
			out.Priority = &p
		}
	}

	if strings.TrimSpace(in.Status) != "" {
		s, err := ParseStatus(in.Status)
		if err != nil {
			errs = errs.Append("status", err)
		} else {
			out.Status = &s
		}
	}

	if err := errs.ToError(); err != nil {
		return Patch{}, err
	}
	return out, nil
}
