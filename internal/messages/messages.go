// Package messages holds the localized user-facing texts shown as
// notifications and inline form errors.
package messages

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

// Message IDs. Every ID has an entry in each locales/active.<lang>.toml file.
const (
	SessionExpired     = "session_expired"
	Forbidden          = "forbidden"
	NotFound           = "not_found"
	Validation         = "validation"
	InvalidData        = "invalid_data"
	ServerError        = "server_error"
	Unexpected         = "unexpected"
	Connectivity       = "connectivity"
	InvalidCredentials = "invalid_credentials"
	TooManyRequests    = "too_many_requests"

	LoginFailed     = "login_failed"
	RegisterFailed  = "register_failed"
	NoSession       = "no_session"
	InvalidToken    = "invalid_token"
	LoginSuccess    = "login_success"
	RegisterSuccess = "register_success"
	LoggedOut       = "logged_out"

	LoadTasksFailed  = "load_tasks_failed"
	LoadTaskFailed   = "load_task_failed"
	CreateTaskFailed = "create_task_failed"
	UpdateTaskFailed = "update_task_failed"
	DeleteTaskFailed = "delete_task_failed"
	TaskCreated      = "task_created"
	TaskUpdated      = "task_updated"
	TaskDeleted      = "task_deleted"

	LoadStatesFailed  = "load_states_failed"
	LoadStateFailed   = "load_state_failed"
	CreateStateFailed = "create_state_failed"
	UpdateStateFailed = "update_state_failed"
	DeleteStateFailed = "delete_state_failed"
	StateCreated      = "state_created"
	StateUpdated      = "state_updated"
	StateDeleted      = "state_deleted"
	StateInUse        = "state_in_use"

	EmailRequired      = "email_required"
	EmailInvalid       = "email_invalid"
	PasswordRequired   = "password_required"
	PasswordMin        = "password_min"
	PasswordMismatch   = "password_mismatch"
	UsernameMin        = "username_min"
	TitleRequired      = "title_required"
	TitleTooLong       = "title_too_long"
	DescriptionTooLong = "description_too_long"
	StateRequired      = "state_required"
	DueDateInvalid     = "due_date_invalid"
	NameRequired       = "name_required"
	NameTooLong        = "name_too_long"
)

// Supported language tags.
const (
	LanguageEs = "es"
	LanguageEn = "en"
)

// Texts resolves a message ID to user-facing text for the language carried
// by ctx.
type Texts interface {
	Text(ctx context.Context, id string, data map[string]any) string
}

type langKey struct{}

// WithLanguage returns a context carrying the preferred languages, in order.
func WithLanguage(ctx context.Context, langs ...string) context.Context {
	return context.WithValue(ctx, langKey{}, langs)
}

// LanguagesFromContext returns the languages stored by WithLanguage.
func LanguagesFromContext(ctx context.Context) []string {
	v, _ := ctx.Value(langKey{}).([]string)
	return v
}

// Catalog is the go-i18n bundle built from the embedded locale files.
type Catalog struct {
	bundle      *i18n.Bundle
	defaultLang string
}

// New loads the embedded locale files. defaultLang is used when the context
// carries no language or none of its languages is supported.
func New(defaultLang string) (*Catalog, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("messages.New: parse default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("messages.New: list locales: %w", err)
	}
	for _, f := range files {
		if _, loadErr := bundle.LoadMessageFileFS(locales, f); loadErr != nil {
			return nil, fmt.Errorf("messages.New: load %s: %w", f, loadErr)
		}
	}

	return &Catalog{bundle: bundle, defaultLang: defaultLang}, nil
}

// MustNew is New for package-level test fixtures.
func MustNew(defaultLang string) *Catalog {
	c, err := New(defaultLang)
	if err != nil {
		panic(err)
	}
	return c
}

// Text returns the localized message, or the ID itself when no translation
// exists.
func (c *Catalog) Text(ctx context.Context, id string, data map[string]any) string {
	fromCtx := LanguagesFromContext(ctx)
	langs := make([]string, 0, len(fromCtx)+1)
	langs = append(langs, fromCtx...)
	langs = append(langs, c.defaultLang)
	l := i18n.NewLocalizer(c.bundle, langs...)

	msg, err := l.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		log.Warn().Err(err).Strs("langs", langs).Str("message_id", id).Msg("messages: translation not found")
		return id
	}
	return msg
}

// ParseAcceptLanguage returns the base language tags of an Accept-Language
// header in preference order.
func ParseAcceptLanguage(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		base, _ := t.Base()
		if slices.Contains(out, base.String()) {
			continue
		}
		out = append(out, base.String())
	}
	return out
}
