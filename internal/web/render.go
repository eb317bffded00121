package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/view"
)

// Page names, one template file each under templates/.
const (
	pageLogin       = "login"
	pageRegister    = "register"
	pageRedirecting = "redirecting"
	pageDashboard   = "dashboard"
	pageTasks       = "tasks"
	pageTaskForm    = "task_form"
	pageStates      = "states"
	pageStateForm   = "state_form"
	pageReports     = "reports"
)

var pageNames = []string{ //nolint:gochecknoglobals // template table
	pageLogin, pageRegister, pageRedirecting, pageDashboard, pageTasks,
	pageTaskForm, pageStates, pageStateForm, pageReports,
}

// Page is the data passed to every template.
type Page struct {
	ctx   context.Context
	texts messages.Texts

	Lang     string
	TitleID  string
	Nav      string
	User     *domain.User
	Toasts   []notify.Toast
	LiveFeed bool
	// Errors holds localized inline field errors.
	Errors map[string]string
	// Refresh, when set, makes the page navigate to RefreshURL after the delay.
	Refresh    time.Duration
	RefreshURL string

	Data any
}

// T localizes a message ID. args are key/value pairs of template data.
func (p *Page) T(id string, args ...any) string {
	var data map[string]any
	if len(args) > 1 {
		data = make(map[string]any, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			if k, ok := args[i].(string); ok {
				data[k] = args[i+1]
			}
		}
	}
	return p.texts.Text(p.ctx, id, data)
}

// Err returns the inline error for a field.
func (p *Page) Err(field string) string {
	return p.Errors[field]
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{ //nolint:gochecknoglobals // template helpers
	"badge": view.StateBadge,
	"date": func(lang string, ts any) string {
		switch v := ts.(type) {
		case domain.Timestamp:
			return view.FormatDate(v.Time, lang)
		case *domain.Timestamp:
			if v == nil {
				return ""
			}
			return view.FormatDate(v.Time, lang)
		case time.Time:
			return view.FormatDate(v, lang)
		}
		return ""
	},
	"seconds": func(d time.Duration) int { return int(d.Round(time.Second) / time.Second) },
	"eqInt":   func(a, b int) bool { return a == b },
	"overdue": func(t domain.Task) bool { return t.Overdue(time.Now()) },
	"lower":   strings.ToLower,
}

// NewRenderer parses layout.html together with each page template from fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("web.NewRenderer: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the page with status. The output is buffered so a template
// error never produces a partial page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p *Page) {
	t, ok := r.pages[name]
	if !ok {
		log.Error().Str("page", name).Msg("web: unknown page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", p); err != nil {
		log.Error().Err(err).Str("page", name).Msg("web: render")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
