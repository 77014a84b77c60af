package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classroomhq/auth-service/internal/guard"
	"github.com/classroomhq/auth-service/internal/httpx"
	"github.com/classroomhq/auth-service/internal/user"
	"github.com/classroomhq/auth-service/pkg/id"
)

// RefreshTokenHeader is the header the refresh and logout endpoints read;
// the refresh token is never accepted as a bearer credential.
const RefreshTokenHeader = "X-Refresh-Token"

type AuthenticationHandler interface {
	Routes() chi.Router
}

type authenticationHandler struct {
	logger      *zap.Logger
	authService AuthService
	store       user.Store
	validator   *validator.Validate
}

func NewAuthenticationHandler(authService AuthService, store user.Store, l *zap.Logger) AuthenticationHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &authenticationHandler{
		logger:      l,
		authService: authService,
		store:       store,
		validator:   v,
	}
}

func (a *authenticationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", a.Register)
	r.Post("/login", a.Login)
	r.Post("/refresh", a.Refresh)
	r.Post("/logout", a.Logout)
	r.Get("/me", a.Me)
	r.Get("/users/{id}", a.GetUser)
	return r
}

func (a *authenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var req registerRequest
	if !a.decode(w, r, &req) {
		return
	}

	role := user.RoleStudent
	if req.Role != "" {
		parsed, err := user.ParseRole(req.Role)
		if err != nil {
			httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.ErrorResponse[any]{
				Code:    httpx.ErrValidationFailed,
				Message: "unknown role",
			})
			return
		}
		role = parsed
	}

	u, err := a.authService.Register(ctx, req.Email, req.FullName, req.Password, role)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			a.logger.Debug("duplicate email", zap.String("email", req.Email))
			httpx.WriteError(w, http.StatusConflict, httpx.ErrorResponse[any]{
				Code:    httpx.ErrConflict,
				Message: "email already exists",
			})
			return
		}
		a.internalError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{ID: u.PublicID.String()})
}

func (a *authenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}

	pair, err := a.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			a.unauthorized(w)
			return
		}
		a.internalError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (a *authenticationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pair, err := a.authService.Refresh(ctx, r.Header.Get(RefreshTokenHeader))
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			a.unauthorized(w)
			return
		}
		a.internalError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (a *authenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.authService.Logout(ctx, r.Header.Get(RefreshTokenHeader)); err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			a.unauthorized(w)
			return
		}
		a.internalError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, logoutResponse{Success: true})
}

func (a *authenticationHandler) Me(w http.ResponseWriter, r *http.Request) {
	viewer := guard.ViewerFrom(r.Context())
	if !viewer.Authenticated() {
		a.unauthorized(w)
		return
	}
	a.writeUser(w, r, viewer.ID)
}

func (a *authenticationHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	publicID, err := id.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, httpx.ErrorResponse[any]{
			Code:    httpx.ErrNotFound,
			Message: "user not found",
		})
		return
	}
	a.writeUser(w, r, publicID)
}

// writeUser resolves the profile, then runs each sensitive field through the
// guard. Email denial fails the request; full name degrades silently.
func (a *authenticationHandler) writeUser(w http.ResponseWriter, r *http.Request, publicID id.PublicID) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := a.store.FindByID(ctx, publicID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, httpx.ErrorResponse[any]{
				Code:    httpx.ErrNotFound,
				Message: "user not found",
			})
			return
		}
		a.internalError(w, err)
		return
	}

	email, err := guard.Field(ctx, u, u.Email)
	if err != nil {
		httpx.WriteError(w, http.StatusForbidden, httpx.ErrorResponse[any]{
			Code:    httpx.ErrForbidden,
			Message: "you don't have the right to access this field",
		})
		return
	}
	fullName, _ := guard.Field(ctx, u, u.FullName, guard.WithSilentDeny())

	httpx.WriteJSON(w, http.StatusOK, userResponse{
		ID:        u.PublicID.String(),
		Email:     email,
		FullName:  fullName,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	})
}

// decode applies the shared request hygiene: body cap, content type, single
// JSON object, struct validation.
func (a *authenticationHandler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		httpx.WriteError(w, http.StatusUnsupportedMediaType, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnsupportedMedia,
			Message: "Content-Type must be application/json",
		})
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		a.logger.Warn("failed to decode request body", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "invalid request body",
		})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF { // check if there's any trailing data
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "request body must contain a single JSON object",
		})
		return false
	}

	if err := a.validator.Struct(req); err != nil {
		a.logger.Warn("request validation failed", zap.Error(err))
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.ErrorResponse[[]httpx.FieldError]{
			Code:    httpx.ErrValidationFailed,
			Message: "validation failed",
			Details: httpx.ValidationDetails(err),
		})
		return false
	}
	return true
}

func (a *authenticationHandler) unauthorized(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
		Code:    httpx.ErrUnauthorized,
		Message: "unauthorized",
	})
}

func (a *authenticationHandler) internalError(w http.ResponseWriter, err error) {
	a.logger.Error("internal server error", zap.Error(err))
	httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
		Code:    httpx.ErrInternal,
		Message: "internal server error",
	})
}

type registerRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=1,max=128"`
	Password string `json:"password"  validate:"required,min=8,max=72"`
	Role     string `json:"role"      validate:"omitempty,oneof=student teacher admin"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
