package web

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/apiclient"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/session"
	"github.com/gosuda/taskboard/internal/store"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
)

// navigator records the forced navigation requested by the API client so
// the handler can answer with a redirect instead of the page.
type navigator struct {
	mu       sync.Mutex
	location string
}

func (n *navigator) Navigate(_ context.Context, location string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.location == "" {
		n.location = location
	}
}

func (n *navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// browser is the client-side state of one browser session, rebuilt for every
// request from the sid-scoped KV and the request cookies.
type browser struct {
	sid       uuid.UUID
	persister *session.Persister
	queue     *notify.Queue
	notifier  notify.Notifier
	nav       *navigator
	api       *apiclient.Client

	auth   *store.Auth
	tasks  *store.Tasks
	states *store.States
}

func (h *Handler) openBrowser(w http.ResponseWriter, r *http.Request) *browser {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		// Requests without the session middleware get a throwaway scope.
		sid = uuid.New()
		log.Warn().Str("path", r.URL.Path).Msg("web: request without browser session id")
	}

	kv := session.BrowserScope(h.deps.KV, sid.String())
	cookies := session.NewHTTPCookies(w, r, h.deps.Config.CookieSecure)
	persister := session.NewPersister(kv, cookies, h.deps.Config.SessionTTL)
	queue := notify.NewQueue(kv)

	var live notify.Notifier
	if h.deps.Bus != nil {
		live = notify.NewPublisher(h.deps.Bus, redisstore.ToastChannel(sid))
	}
	notifier := notify.NewDedupe(notify.NewFanout(queue, live))
	nav := &navigator{}

	api := h.deps.API.WithHooks(apiclient.Hooks{
		Tokens:         persister,
		Notifier:       notifier,
		Texts:          h.deps.Texts,
		OnUnauthorized: persister.Clear,
		Navigator:      nav,
	})

	return &browser{
		sid:       sid,
		persister: persister,
		queue:     queue,
		notifier:  notifier,
		nav:       nav,
		api:       api,
		auth:      store.NewAuth(store.AuthDeps{API: api, Sessions: persister, Texts: h.deps.Texts}),
		tasks:     store.NewTasks(api, h.deps.Texts),
		states:    store.NewStates(api, h.deps.Texts),
	}
}

type browserKey struct{}

func withBrowser(ctx context.Context, b *browser) context.Context {
	return context.WithValue(ctx, browserKey{}, b)
}

func browserFrom(ctx context.Context) *browser {
	b, _ := ctx.Value(browserKey{}).(*browser)
	return b
}

// notify delivers a localized toast. Delivery failures are logged only.
func (h *Handler) notify(ctx context.Context, b *browser, level notify.Level, id string, data map[string]any) {
	msg := h.deps.Texts.Text(ctx, id, data)
	if err := b.notifier.Notify(ctx, notify.New(level, msg)); err != nil {
		log.Warn().Err(err).Str("message_id", id).Msg("web: notify")
	}
}
