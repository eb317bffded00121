package web

import (
	"net/http"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/view"
)

type dashboardData struct {
	Stats  view.DashboardStats
	Recent []domain.Task
	Error  string
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)

	var data dashboardData
	res, err := b.tasks.List(ctx, domain.TaskQuery{Page: 1, PageSize: view.RecentTasksPageSize})
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		data.Error = b.tasks.State().Error
	} else {
		data.Recent = res.Items
		data.Stats = view.Dashboard(res.Items, res.TotalCount, h.now())
	}
	h.render(w, http.StatusOK, pageDashboard, h.page(ctx, b, "ui_dashboard_title", "dashboard", data))
}

type reportsData struct {
	Rows  []view.ReportRow
	Total int
	Error string
}

func (h *Handler) reports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	states := b.states.State().States

	var data reportsData
	total, err := b.api.CountTasks(ctx, domain.TaskFilter{})
	var counts map[int]int
	if err == nil {
		counts, err = countByState(ctx, b.api, states)
	}
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		h.reportFailure(ctx, b, err)
		data.Error = h.deps.Texts.Text(ctx, "ui_reports_unavailable", nil)
	} else {
		data.Total = total
		data.Rows = view.ReportRows(states, counts, total)
	}
	h.render(w, http.StatusOK, pageReports, h.page(ctx, b, "ui_reports_title", "reports", data))
}
