// Package view derives the page models rendered by the web handlers. All
// functions are pure.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/store"
)

// State names with special meaning on the dashboard, compared lowercased.
const (
	StatePending    = "pendiente"
	StateInProgress = "en progreso"
	StateDone       = "completada"
)

// RecentTasksPageSize is the size of the dashboard's recent task listing.
const RecentTasksPageSize = 5

// DashboardStats are the dashboard counters. Total is the server-side count;
// the others are computed over the recent tasks only.
type DashboardStats struct {
	Total      int
	Pending    int
	InProgress int
	Overdue    int
}

func Dashboard(recent []domain.Task, total int, now time.Time) DashboardStats {
	stats := DashboardStats{Total: total}
	for i := range recent {
		t := &recent[i]
		if t.State != nil {
			switch strings.ToLower(t.State.Name) {
			case StatePending:
				stats.Pending++
			case StateInProgress:
				stats.InProgress++
			}
		}
		if t.Overdue(now) {
			stats.Overdue++
		}
	}
	return stats
}

// StateBadge returns the badge colour classes for a state name.
func StateBadge(name string) string {
	switch strings.ToLower(name) {
	case StatePending:
		return "badge badge-yellow"
	case StateInProgress:
		return "badge badge-blue"
	case StateDone:
		return "badge badge-green"
	default:
		return "badge badge-gray"
	}
}

// DefaultStateID is the state preselected in the new-task form: "pendiente"
// when present, otherwise the first state, otherwise 0.
func DefaultStateID(states []domain.State) int {
	for _, s := range states {
		if strings.EqualFold(s.Name, StatePending) {
			return s.ID
		}
	}
	if len(states) > 0 {
		return states[0].ID
	}
	return 0
}

// CanDeleteState reports whether a state has no associated tasks.
func CanDeleteState(stateID int, counts map[int]int) bool {
	return counts[stateID] <= 0
}

// StateCard is one entry of the states page.
type StateCard struct {
	State     domain.State
	TaskCount int
	CanDelete bool
	Badge     string
	// Edited is true when the state was updated after creation.
	Edited bool
}

func StateCards(states []domain.State, counts map[int]int) []StateCard {
	cards := make([]StateCard, 0, len(states))
	for _, s := range states {
		cards = append(cards, StateCard{
			State:     s,
			TaskCount: counts[s.ID],
			CanDelete: CanDeleteState(s.ID, counts),
			Badge:     StateBadge(s.Name),
			Edited:    !s.UpdatedAt.IsZero() && !s.UpdatedAt.Equal(s.CreatedAt.Time),
		})
	}
	return cards
}

// Window is the "showing From-To of Total" range of a task page.
type Window struct {
	From  int
	To    int
	Total int
}

func PageWindow(st store.TaskState) Window {
	if st.TotalCount <= 0 || st.PageSize <= 0 {
		return Window{}
	}
	from := (st.CurrentPage-1)*st.PageSize + 1
	to := min(st.CurrentPage*st.PageSize, st.TotalCount)
	return Window{From: from, To: to, Total: st.TotalCount}
}

// Pager holds the pagination links of a task page.
type Pager struct {
	Current  int
	Total    int
	Prev     int
	Next     int
	HasPrev  bool
	HasNext  bool
	Numbered []int
}

// maxNumbered bounds the numbered page links around the current page.
const maxNumbered = 5

func NewPager(st store.TaskState) Pager {
	p := Pager{
		Current: st.CurrentPage,
		Total:   st.TotalPages,
		Prev:    st.CurrentPage - 1,
		Next:    st.CurrentPage + 1,
		HasPrev: st.HasPreviousPage,
		HasNext: st.HasNextPage,
	}
	if st.TotalPages <= 1 {
		return p
	}
	start := max(1, st.CurrentPage-maxNumbered/2)
	end := min(st.TotalPages, start+maxNumbered-1)
	start = max(1, end-maxNumbered+1)
	for i := start; i <= end; i++ {
		p.Numbered = append(p.Numbered, i)
	}
	return p
}

// ReportRow is the per-state line of the reports page.
type ReportRow struct {
	State domain.State
	Count int
	// Share is the percentage of all tasks, rounded to one decimal.
	Share float64
	Badge string
}

func ReportRows(states []domain.State, counts map[int]int, total int) []ReportRow {
	rows := make([]ReportRow, 0, len(states))
	for _, s := range states {
		row := ReportRow{State: s, Count: counts[s.ID], Badge: StateBadge(s.Name)}
		if total > 0 {
			row.Share = float64(int(float64(row.Count)*1000/float64(total)+0.5)) / 10
		}
		rows = append(rows, row)
	}
	return rows
}

var monthsEs = [...]string{ //nolint:gochecknoglobals // lookup table
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDate renders a date the way the UI shows it: "1 de junio de 2025"
// in Spanish, "June 1, 2025" otherwise. The zero time renders as "".
func FormatDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	if lang == "es" {
		return fmt.Sprintf("%d de %s de %d", t.Day(), monthsEs[t.Month()-1], t.Year())
	}
	return t.Format("January 2, 2006")
}
