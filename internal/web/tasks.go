package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/forms"
	"github.com/gosuda/taskboard/internal/guard"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/store"
	"github.com/gosuda/taskboard/internal/view"
)

const (
	tasksPath   = "/tasks"
	maxPageSize = 100
)

// PageSizes are the page sizes offered by the task list.
var PageSizes = []int{5, 10, 20, 50} //nolint:gochecknoglobals // select options

// listParams are the task list filters and pagination read from the URL.
type listParams struct {
	Title    string
	StateID  int
	DueDate  string
	Page     int
	PageSize int
}

func parseListParams(v url.Values) listParams {
	p := listParams{
		Title:    strings.TrimSpace(v.Get("title")),
		DueDate:  strings.TrimSpace(v.Get("dueDate")),
		Page:     store.DefaultPage,
		PageSize: store.DefaultPageSize,
	}
	if id, err := strconv.Atoi(v.Get("stateId")); err == nil && id > 0 {
		p.StateID = id
	}
	if p.DueDate != "" {
		if _, err := domain.ParseTimestamp(p.DueDate); err != nil {
			p.DueDate = ""
		}
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(v.Get("pageSize")); err == nil && n > 0 {
		p.PageSize = min(n, maxPageSize)
	}
	return p
}

func (p listParams) filter() domain.TaskFilter {
	title, due, id := p.Title, p.DueDate, p.StateID
	return domain.TaskFilter{Title: &title, StateID: &id, DueDate: &due}
}

func (p listParams) values() url.Values {
	v := url.Values{}
	if p.Title != "" {
		v.Set("title", p.Title)
	}
	if p.StateID > 0 {
		v.Set("stateId", strconv.Itoa(p.StateID))
	}
	if p.DueDate != "" {
		v.Set("dueDate", p.DueDate)
	}
	if p.Page > 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize != store.DefaultPageSize {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	return v
}

func (p listParams) url() string {
	if q := p.values().Encode(); q != "" {
		return tasksPath + "?" + q
	}
	return tasksPath
}

type taskListData struct {
	Params    listParams
	Tasks     []domain.Task
	States    []domain.State
	Window    view.Window
	Pager     view.Pager
	PageSizes []int
	Filtered  bool
	Error     string
}

// PageURL links page n of the current listing.
func (d taskListData) PageURL(n int) string {
	p := d.Params
	p.Page = n
	return p.url()
}

// Self links the current listing.
func (d taskListData) Self() string {
	return d.Params.url()
}

func (h *Handler) taskList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	params := parseListParams(r.URL.Query())

	b.tasks.SetFilters(params.filter())
	b.tasks.SetCurrentPage(params.Page)
	b.tasks.SetPageSize(params.PageSize)
	_, err := b.tasks.Fetch(ctx)
	if navigated(w, r, b) {
		return
	}

	st := b.tasks.State()
	data := taskListData{
		Params:    params,
		Tasks:     st.Tasks,
		States:    b.states.State().States,
		Window:    view.PageWindow(st),
		Pager:     view.NewPager(st),
		PageSizes: PageSizes,
		Filtered:  !st.Filters.IsZero(),
	}
	if err != nil {
		data.Error = st.Error
	}
	h.render(w, http.StatusOK, pageTasks, h.page(ctx, b, "ui_tasks_title", "tasks", data))
}

type taskFormData struct {
	ID     int
	Form   forms.Task
	States []domain.State
	Error  string
}

// Editing reports whether the form edits an existing task.
func (d taskFormData) Editing() bool { return d.ID > 0 }

// Action is the form's post target.
func (d taskFormData) Action() string {
	if d.ID > 0 {
		return tasksPath + "/" + strconv.Itoa(d.ID) + "/edit"
	}
	return tasksPath + "/new"
}

func (d taskFormData) titleID() string {
	if d.ID > 0 {
		return "ui_task_edit_title"
	}
	return "ui_task_new_title"
}

func (h *Handler) taskNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	states := b.states.State().States

	data := taskFormData{States: states}
	if id := view.DefaultStateID(states); id > 0 {
		data.Form.StateID = strconv.Itoa(id)
	}
	h.render(w, http.StatusOK, pageTaskForm, h.page(ctx, b, data.titleID(), "tasks", data))
}

func (h *Handler) taskCreate(w http.ResponseWriter, r *http.Request) {
	h.saveTask(w, r, 0)
}

func (h *Handler) taskEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	task, err := b.tasks.GetByID(ctx, id)
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		http.Redirect(w, r, tasksPath, http.StatusSeeOther)
		return
	}

	data := taskFormData{ID: id, Form: forms.TaskFromDomain(task), States: b.states.State().States}
	h.render(w, http.StatusOK, pageTaskForm, h.page(ctx, b, data.titleID(), "tasks", data))
}

func (h *Handler) taskUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.saveTask(w, r, id)
}

// saveTask creates the task when id is 0 and updates it otherwise.
func (h *Handler) saveTask(w http.ResponseWriter, r *http.Request, id int) {
	ctx := r.Context()
	b := browserFrom(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := forms.ParseTask(r.PostForm)
	data := taskFormData{ID: id, Form: form, States: b.states.State().States}

	in, errs := form.Validate()
	if !errs.Valid() {
		p := h.page(ctx, b, data.titleID(), "tasks", data)
		p.Errors = errs.Localize(h.translator(ctx))
		h.render(w, http.StatusUnprocessableEntity, pageTaskForm, p)
		return
	}

	var err error
	successID := messages.TaskCreated
	if id > 0 {
		_, err = b.tasks.Update(ctx, id, in)
		successID = messages.TaskUpdated
	} else {
		_, err = b.tasks.Create(ctx, in)
	}
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		log.Debug().Err(err).Int("task_id", id).Msg("web: save task")
		h.reportFailure(ctx, b, err)
		data.Error = b.tasks.State().Error
		p := h.page(ctx, b, data.titleID(), "tasks", data)
		p.Errors = apiFieldErrors(err)
		h.render(w, statusFor(err), pageTaskForm, p)
		return
	}

	h.notify(ctx, b, notify.LevelSuccess, successID, nil)
	http.Redirect(w, r, tasksPath, http.StatusSeeOther)
}

func (h *Handler) taskDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := b.tasks.Delete(ctx, id)
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		h.reportFailure(ctx, b, err)
	} else {
		h.notify(ctx, b, notify.LevelSuccess, messages.TaskDeleted, nil)
	}
	http.Redirect(w, r, returnTo(r.PostForm.Get("return"), tasksPath), http.StatusSeeOther)
}

// returnTo is target when it is a safe local path under prefix, else prefix.
func returnTo(target, prefix string) string {
	if target == "" {
		return prefix
	}
	safe := guard.SafeRedirect(target)
	if !strings.HasPrefix(safe, prefix) {
		return prefix
	}
	return safe
}
