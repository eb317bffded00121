package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/store"
	"github.com/gosuda/taskboard/internal/view"
)

var (
	pending    = domain.State{ID: 1, Name: "Pendiente"}   //nolint:gochecknoglobals // fixture
	inProgress = domain.State{ID: 2, Name: "En Progreso"} //nolint:gochecknoglobals // fixture
	done       = domain.State{ID: 3, Name: "Completada"}  //nolint:gochecknoglobals // fixture
)

func TestDashboard(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	past := domain.NewTimestamp(now.AddDate(0, 0, -1))
	future := domain.NewTimestamp(now.AddDate(0, 0, 1))

	recent := []domain.Task{
		{ID: 1, State: &pending, DueDate: &past},
		{ID: 2, State: &pending},
		{ID: 3, State: &inProgress, DueDate: &future},
		{ID: 4, State: &done, DueDate: &past},
		{ID: 5},
	}

	got := view.Dashboard(recent, 42, now)
	assert.Equal(t, view.DashboardStats{Total: 42, Pending: 2, InProgress: 1, Overdue: 2}, got)
	assert.Equal(t, view.DashboardStats{}, view.Dashboard(nil, 0, now))
}

func TestStateBadge(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "badge badge-yellow", view.StateBadge("PENDIENTE"))
	assert.Equal(t, "badge badge-blue", view.StateBadge("En progreso"))
	assert.Equal(t, "badge badge-green", view.StateBadge("completada"))
	assert.Equal(t, "badge badge-gray", view.StateBadge("Bloqueada"))
}

func TestDefaultStateID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, view.DefaultStateID([]domain.State{inProgress, pending}))
	assert.Equal(t, 2, view.DefaultStateID([]domain.State{inProgress, done}))
	assert.Equal(t, 0, view.DefaultStateID(nil))
}

func TestStateCards(t *testing.T) {
	t.Parallel()

	counts := map[int]int{1: 3}
	cards := view.StateCards([]domain.State{pending, done}, counts)

	assert.Equal(t, 3, cards[0].TaskCount)
	assert.False(t, cards[0].CanDelete, "state with tasks cannot be deleted")
	assert.Equal(t, 0, cards[1].TaskCount)
	assert.True(t, cards[1].CanDelete)

	assert.False(t, view.CanDeleteState(1, counts))
	assert.True(t, view.CanDeleteState(99, counts))
}

func TestPageWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		st   store.TaskState
		want view.Window
	}{
		{"first page", store.TaskState{CurrentPage: 1, PageSize: 10, TotalCount: 23}, view.Window{From: 1, To: 10, Total: 23}},
		{"last partial page", store.TaskState{CurrentPage: 3, PageSize: 10, TotalCount: 23}, view.Window{From: 21, To: 23, Total: 23}},
		{"empty", store.TaskState{CurrentPage: 1, PageSize: 10}, view.Window{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, view.PageWindow(tt.st))
		})
	}
}

func TestNewPager(t *testing.T) {
	t.Parallel()

	p := view.NewPager(store.TaskState{CurrentPage: 5, TotalPages: 9, HasNextPage: true, HasPreviousPage: true})
	assert.Equal(t, []int{3, 4, 5, 6, 7}, p.Numbered)
	assert.Equal(t, 4, p.Prev)
	assert.Equal(t, 6, p.Next)

	p = view.NewPager(store.TaskState{CurrentPage: 9, TotalPages: 9, HasPreviousPage: true})
	assert.Equal(t, []int{5, 6, 7, 8, 9}, p.Numbered)
	assert.False(t, p.HasNext)

	p = view.NewPager(store.TaskState{CurrentPage: 1, TotalPages: 1})
	assert.Empty(t, p.Numbered)
}

func TestReportRows(t *testing.T) {
	t.Parallel()

	rows := view.ReportRows([]domain.State{pending, inProgress, done}, map[int]int{1: 1, 2: 2}, 3)
	assert.Equal(t, 33.3, rows[0].Share)
	assert.Equal(t, 66.7, rows[1].Share)
	assert.Equal(t, 0.0, rows[2].Share)
	assert.Equal(t, 2, rows[1].Count)

	empty := view.ReportRows([]domain.State{pending}, nil, 0)
	assert.Equal(t, 0.0, empty[0].Share)
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	d := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "1 de junio de 2025", view.FormatDate(d, "es"))
	assert.Equal(t, "June 1, 2025", view.FormatDate(d, "en"))
	assert.Empty(t, view.FormatDate(time.Time{}, "es"))
}
