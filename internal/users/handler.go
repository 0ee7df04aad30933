package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageUsers, authz.ActionView))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageUsers, authz.ActionCreate))
		r.Post("/", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageUsers, authz.ActionEdit))
		r.Post("/{userID}/deactivate", h.deactivate)
		r.Post("/{userID}/reactivate", h.reactivate)
	})
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type createUserForm struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]userResponse, len(users))
	for i, user := range users {
		out[i] = userResponse{ID: user.ID, Email: user.Email, Name: user.Name, IsActive: user.IsActive, CreatedAt: user.CreatedAt}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var form createUserForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.CreateUser(r.Context(), form.Email, form.Name, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email already registered")
			return
		}
		h.logger.Error("create user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, Name: user.Name, IsActive: user.IsActive, CreatedAt: user.CreatedAt})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	if active {
		err = h.service.Reactivate(r.Context(), id)
	} else {
		err = h.service.Deactivate(r.Context(), id)
	}
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("set user active", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
}
