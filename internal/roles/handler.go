package roles

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

// Handler manages role administration endpoints.
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

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageRoles, authz.ActionView))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageRoles, authz.ActionCreate))
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageRoles, authz.ActionEdit))
		r.Put("/{roleID}", h.renameRole)
		r.Post("/{roleID}/deactivate", h.deactivateRole)
		r.Post("/{roleID}/reactivate", h.reactivateRole)
		r.Post("/{roleID}/assignments", h.assignRole)
		r.Delete("/{roleID}/assignments/{userID}", h.removeRole)
	})
}

type roleResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type roleForm struct {
	Name string `json:"name" validate:"required,min=2,max=80"`
}

type assignmentForm struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]roleResponse, len(roles))
	for i, role := range roles {
		out[i] = toResponse(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(role))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeRoleForm(w, r)
	if !ok {
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	role, err := h.service.CreateRole(r.Context(), actor.UserID, form.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(role))
}

func (h *Handler) renameRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	form, ok := h.decodeRoleForm(w, r)
	if !ok {
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	role, err := h.service.RenameRole(r.Context(), actor.UserID, id, form.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(role))
}

func (h *Handler) deactivateRole(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) reactivateRole(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	var err error
	if active {
		err = h.service.ReactivateRole(r.Context(), actor.UserID, id)
	} else {
		err = h.service.DeactivateRole(r.Context(), actor.UserID, id)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var form assignmentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	if err := h.service.AssignRole(r.Context(), actor.UserID, form.UserID, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"role_id": id, "user_id": form.UserID})
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	if err := h.service.RemoveRole(r.Context(), actor.UserID, userID, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": id, "user_id": userID})
}

func (h *Handler) decodeRoleForm(w http.ResponseWriter, r *http.Request) (roleForm, bool) {
	var form roleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return form, false
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	return form, true
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, ErrNameTaken):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "role name already in use")
	case errors.Is(err, ErrAdminImmutable):
		httpx.Problem(w, http.StatusConflict, "Role Conflict", "admin role cannot be modified")
	case errors.Is(err, ErrRoleConflict):
		httpx.Problem(w, http.StatusConflict, "Role Conflict", "role missing or inactive")
	default:
		h.logger.Error("roles handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toResponse(role Role) roleResponse {
	return roleResponse{ID: role.ID, Name: role.Name, IsActive: role.IsActive, IsAdmin: role.IsAdmin, CreatedAt: role.CreatedAt}
}
