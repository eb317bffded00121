package web

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/forms"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/view"
)

const statesPath = "/states"

type stateListData struct {
	Cards []view.StateCard
	// CountsKnown is false when the task counts could not be loaded; no
	// state can be deleted then.
	CountsKnown bool
}

func (h *Handler) stateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	states := b.states.State().States

	counts, err := countByState(ctx, b.api, states)
	if navigated(w, r, b) {
		return
	}

	data := stateListData{CountsKnown: err == nil}
	data.Cards = view.StateCards(states, counts)
	if err != nil {
		h.reportFailure(ctx, b, err)
		for i := range data.Cards {
			data.Cards[i].CanDelete = false
		}
	}
	h.render(w, http.StatusOK, pageStates, h.page(ctx, b, "ui_states_title", "states", data))
}

type stateFormData struct {
	ID    int
	Form  forms.State
	Error string
}

func (d stateFormData) Editing() bool { return d.ID > 0 }

func (d stateFormData) Action() string {
	if d.ID > 0 {
		return statesPath + "/" + strconv.Itoa(d.ID) + "/edit"
	}
	return statesPath + "/new"
}

func (d stateFormData) titleID() string {
	if d.ID > 0 {
		return "ui_state_edit_title"
	}
	return "ui_state_new_title"
}

func (h *Handler) stateNew(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r.Context())
	data := stateFormData{}
	h.render(w, http.StatusOK, pageStateForm, h.page(r.Context(), b, data.titleID(), "states", data))
}

func (h *Handler) stateCreate(w http.ResponseWriter, r *http.Request) {
	h.saveState(w, r, 0)
}

func (h *Handler) stateEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	state, err := b.states.GetByID(ctx, id)
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		http.Redirect(w, r, statesPath, http.StatusSeeOther)
		return
	}

	data := stateFormData{ID: id, Form: forms.StateFromDomain(state)}
	h.render(w, http.StatusOK, pageStateForm, h.page(ctx, b, data.titleID(), "states", data))
}

func (h *Handler) stateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.saveState(w, r, id)
}

func (h *Handler) saveState(w http.ResponseWriter, r *http.Request, id int) {
	ctx := r.Context()
	b := browserFrom(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := forms.ParseState(r.PostForm)
	data := stateFormData{ID: id, Form: form}

	in, errs := form.Validate()
	if !errs.Valid() {
		p := h.page(ctx, b, data.titleID(), "states", data)
		p.Errors = errs.Localize(h.translator(ctx))
		h.render(w, http.StatusUnprocessableEntity, pageStateForm, p)
		return
	}

	var err error
	successID := messages.StateCreated
	if id > 0 {
		_, err = b.states.Update(ctx, id, in)
		successID = messages.StateUpdated
	} else {
		_, err = b.states.Create(ctx, in)
	}
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		log.Debug().Err(err).Int("state_id", id).Msg("web: save state")
		h.reportFailure(ctx, b, err)
		data.Error = b.states.State().Error
		p := h.page(ctx, b, data.titleID(), "states", data)
		p.Errors = apiFieldErrors(err)
		h.render(w, statusFor(err), pageStateForm, p)
		return
	}

	h.notify(ctx, b, notify.LevelSuccess, successID, nil)
	http.Redirect(w, r, statesPath, http.StatusSeeOther)
}

// stateDelete refuses to delete a state that still has tasks. The count is
// taken fresh so a stale page cannot bypass the rule.
func (h *Handler) stateDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	count, err := b.api.CountTasks(ctx, domain.TaskFilter{StateID: &id})
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		http.Redirect(w, r, statesPath, http.StatusSeeOther)
		return
	}

	if !view.CanDeleteState(id, map[int]int{id: count}) {
		name := strconv.Itoa(id)
		if st, found := b.states.State().ByID(id); found {
			name = st.Name
		}
		h.notify(ctx, b, notify.LevelError, messages.StateInUse, map[string]any{"Name": name, "Count": count})
		http.Redirect(w, r, statesPath, http.StatusSeeOther)
		return
	}

	err = b.states.Delete(ctx, id)
	if navigated(w, r, b) {
		return
	}
	if err != nil {
		h.reportFailure(ctx, b, err)
	} else {
		h.notify(ctx, b, notify.LevelSuccess, messages.StateDeleted, nil)
	}
	http.Redirect(w, r, statesPath, http.StatusSeeOther)
}
