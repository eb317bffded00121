package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/domain"
)

// Credential rules enforced on register.
const (
	minUsername = 3
	maxUsername = 50
	minPassword = 6
)

var emailRule = validator.New() //nolint:gochecknoglobals // validator caches rule parsing

type RegisterInput struct {
	Body struct {
		Username string `json:"username,omitempty" minLength:"3" maxLength:"50" doc:"Display name"`
		Email    string `json:"email,omitempty" doc:"User email"`
		Password string `json:"password,omitempty" minLength:"6" doc:"Password"` //nolint:gosec // G117: register credential DTO
	}
}

func (i *RegisterInput) Resolve(huma.Context) []error {
	var errs []error
	n := utf8.RuneCountInString(strings.TrimSpace(i.Body.Username))
	switch {
	case n == 0:
		errs = append(errs, fieldError("body.username", "El nombre de usuario es requerido"))
	case n < minUsername:
		errs = append(errs, fieldError("body.username", "El nombre de usuario debe tener al menos 3 caracteres"))
	case utf8.RuneCountInString(i.Body.Username) > maxUsername:
		errs = append(errs, fieldError("body.username", "El nombre de usuario no puede exceder 50 caracteres"))
	}
	errs = append(errs, checkEmail(i.Body.Email)...)
	if utf8.RuneCountInString(i.Body.Password) < minPassword {
		errs = append(errs, fieldError("body.password", "La contraseña debe tener al menos 6 caracteres"))
	}
	return errs
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email,omitempty" doc:"User email"`
		Password string `json:"password,omitempty" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

func (i *LoginInput) Resolve(huma.Context) []error {
	errs := checkEmail(i.Body.Email)
	if i.Body.Password == "" {
		errs = append(errs, fieldError("body.password", "La contraseña es requerida"))
	}
	return errs
}

type AuthOutput struct {
	Body *domain.AuthResponse
}

func checkEmail(email string) []error {
	email = strings.TrimSpace(email)
	if email == "" {
		return []error{fieldError("body.email", "El email es requerido")}
	}
	if err := emailRule.Var(email, "email"); err != nil {
		return []error{fieldError("body.email", "El formato del email no es válido")}
	}
	return nil
}

// fieldMessage is a user-facing field error. It replaces any schema
// message reported for the same field.
type fieldMessage struct {
	*huma.ErrorDetail
}

func fieldError(location, msg string) error {
	return fieldMessage{&huma.ErrorDetail{Location: location, Message: msg}}
}

func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	UseErrorBody()

	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/Auth/register",
		Summary:     "Register a new user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
		resp, err := authSvc.Register(ctx, strings.TrimSpace(input.Body.Username), input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, badRequest("El email ya está registrado")
			}
			log.Error().Err(err).Msg("devapi: register failed")
			return nil, huma.Error500InternalServerError(msgServer, err)
		}
		return &AuthOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/Auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
		resp, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("Credenciales inválidas")
			}
			log.Error().Err(err).Msg("devapi: login failed")
			return nil, huma.Error500InternalServerError(msgServer, err)
		}
		return &AuthOutput{Body: resp}, nil
	})
}
