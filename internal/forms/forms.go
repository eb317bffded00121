// Package forms parses and validates the HTML forms of the web frontend.
// Validation runs before, and independently of, any API call. Errors are
// message IDs resolved by the messages catalog.
package forms

import (
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/messages"
)

// Date layouts accepted for due dates: a date input and a datetime-local
// input.
const (
	dateLayout          = domain.DateLayout
	datetimeLocalLayout = "2006-01-02T15:04"
)

var validate = newValidator() //nolint:gochecknoglobals // validator caches struct metadata

// newValidator reports fields by their form tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages maps a form field and a failed rule to a message ID. The
// empty rule is the fallback for the field.
var fieldMessages = map[string]map[string]string{ //nolint:gochecknoglobals // static rule table
	"email":           {"required": messages.EmailRequired, "": messages.EmailInvalid},
	"password":        {"required": messages.PasswordRequired, "": messages.PasswordMin},
	"username":        {"": messages.UsernameMin},
	"confirmPassword": {"": messages.PasswordMismatch},
	"title":           {"required": messages.TitleRequired, "": messages.TitleTooLong},
	"description":     {"": messages.DescriptionTooLong},
	"stateId":         {"": messages.StateRequired},
	"dueDate":         {"": messages.DueDateInvalid},
	"name":            {"required": messages.NameRequired, "": messages.NameTooLong},
}

func messageFor(field, tag string) string {
	ids := fieldMessages[field]
	if id, ok := ids[tag]; ok {
		return id
	}
	return ids[""]
}

// Errors maps a field name to the message ID of its first failed rule.
type Errors map[string]string

// add keeps the first error reported for a field.
func (e Errors) add(field, id string) {
	if _, ok := e[field]; !ok {
		e[field] = id
	}
}

func (e Errors) Valid() bool { return len(e) == 0 }

// Localize resolves every message ID with translate.
func (e Errors) Localize(translate func(id string) string) map[string]string {
	out := make(map[string]string, len(e))
	for field, id := range e {
		out[field] = translate(id)
	}
	return out
}

// check runs the validate tags of form and collects one message ID per
// failed field.
func check(form any) Errors {
	errs := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		log.Error().Err(err).Type("form", form).Msg("forms: validation failed to run")
		return errs
	}
	for _, fe := range fieldErrs {
		errs.add(fe.Field(), messageFor(fe.Field(), fe.Tag()))
	}
	return errs
}

// ---------------------------------------------------------------------------
// Login / Register
// ---------------------------------------------------------------------------

type Login struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"` //nolint:gosec // G117: login form field
}

func ParseLogin(v url.Values) Login {
	return Login{Email: strings.TrimSpace(v.Get("email")), Password: v.Get("password")}
}

func (f Login) Validate() Errors { return check(f) }

type Register struct {
	Username        string `form:"username" validate:"min=3"`
	Email           string `form:"email" validate:"email"`
	Password        string `form:"password" validate:"min=6"`                  //nolint:gosec // G117: register form field
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"` //nolint:gosec // G117: register form field
}

func ParseRegister(v url.Values) Register {
	return Register{
		Username:        strings.TrimSpace(v.Get("username")),
		Email:           strings.TrimSpace(v.Get("email")),
		Password:        v.Get("password"),
		ConfirmPassword: v.Get("confirmPassword"),
	}
}

func (f Register) Validate() Errors { return check(f) }

// ---------------------------------------------------------------------------
// Task
// ---------------------------------------------------------------------------

type Task struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	StateID     string `form:"stateId"`
	DueDate     string `form:"dueDate"`
}

func ParseTask(v url.Values) Task {
	return Task{
		Title:       strings.TrimSpace(v.Get("title")),
		Description: strings.TrimSpace(v.Get("description")),
		StateID:     strings.TrimSpace(v.Get("stateId")),
		DueDate:     strings.TrimSpace(v.Get("dueDate")),
	}
}

// TaskFromDomain pre-fills the edit form.
func TaskFromDomain(t *domain.Task) Task {
	f := Task{Title: t.Title, Description: t.Description, StateID: strconv.Itoa(t.StateID)}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		f.DueDate = t.DueDate.UTC().Format(dateLayout)
	}
	return f
}

// taskRules is the typed view of a Task form that the rules run on.
type taskRules struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"max=1000"`
	StateID     int    `form:"stateId" validate:"gte=1"`
	DueDate     string `form:"dueDate" validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04"`
}

// Validate checks the form and converts it into an API input. The input is
// only meaningful when the returned Errors are valid.
func (f Task) Validate() (domain.TaskInput, Errors) {
	id, err := strconv.Atoi(f.StateID)
	if err != nil {
		id = 0
	}
	errs := check(taskRules{Title: f.Title, Description: f.Description, StateID: id, DueDate: f.DueDate})

	in := domain.TaskInput{Title: f.Title, Description: f.Description, StateID: id}
	if due, ok := parseDueDate(f.DueDate); ok {
		ts := domain.NewTimestamp(due)
		in.DueDate = &ts
	}
	return in, errs
}

func parseDueDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{dateLayout, datetimeLocalLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

type State struct {
	Name        string `form:"name" validate:"required,max=50"`
	Description string `form:"description" validate:"max=200"`
}

func ParseState(v url.Values) State {
	return State{Name: strings.TrimSpace(v.Get("name")), Description: strings.TrimSpace(v.Get("description"))}
}

func StateFromDomain(s *domain.State) State {
	return State{Name: s.Name, Description: s.Description}
}

func (f State) Validate() (domain.StateInput, Errors) {
	return domain.StateInput{Name: f.Name, Description: f.Description}, check(f)
}
