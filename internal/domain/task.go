package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Task is the client-side copy of a task owned by the remote API.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	StateID     int        `json:"stateId"`
	State       *State     `json:"state,omitempty"`
	CreatedAt   Timestamp  `json:"createdAt"`
	UpdatedAt   Timestamp  `json:"updatedAt"`
}

// Overdue reports whether the task has a due date strictly before now.
func (t *Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && !t.DueDate.IsZero() && t.DueDate.Before(now)
}

// TaskInput is the body of task create and update requests.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StateID     int        `json:"stateId"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
}

// TaskFilter narrows a task listing. Nil fields are unset; an empty string or
// a zero id clears the filter when merged.
type TaskFilter struct {
	Title   *string
	StateID *int
	DueDate *string // YYYY-MM-DD
}

// Merge returns f with every non-nil field of patch applied.
func (f TaskFilter) Merge(patch TaskFilter) TaskFilter {
	if patch.Title != nil {
		f.Title = normalizeString(patch.Title)
	}
	if patch.StateID != nil {
		if *patch.StateID <= 0 {
			f.StateID = nil
		} else {
			id := *patch.StateID
			f.StateID = &id
		}
	}
	if patch.DueDate != nil {
		f.DueDate = normalizeString(patch.DueDate)
	}
	return f
}

// IsZero reports whether no filter is set.
func (f TaskFilter) IsZero() bool {
	return f.Title == nil && f.StateID == nil && f.DueDate == nil
}

func normalizeString(s *string) *string {
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// TaskQuery is a filtered page request against the task listing.
type TaskQuery struct {
	Filter   TaskFilter
	Page     int
	PageSize int
}

// Values encodes the query as the API's query parameters.
func (q TaskQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Filter.StateID != nil {
		v.Set("stateId", strconv.Itoa(*q.Filter.StateID))
	}
	if q.Filter.DueDate != nil {
		v.Set("dueDate", *q.Filter.DueDate)
	}
	if q.Filter.Title != nil {
		v.Set("title", *q.Filter.Title)
	}
	return v
}
