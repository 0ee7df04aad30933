package matrix

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes the role-administration surface for the matrix.
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

// MountRoutes registers matrix routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PagePermissions, authz.ActionView))
		r.Get("/roles/{roleID}/grants", h.listGrants)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PagePermissions, authz.ActionEdit))
		r.Put("/roles/{roleID}/grants", h.replaceGrants)
		r.Put("/roles/{roleID}/grants/{pageID}", h.setGrants)
	})
}

type grantRow struct {
	PageID int64             `json:"page_id" validate:"required,gt=0"`
	Grants authz.GrantVector `json:"grants"`
}

type replaceGrantsRequest struct {
	Grants []grantRow `json:"grants" validate:"required,dive"`
}

func (h *Handler) listGrants(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	grants, err := h.service.ListGrants(r.Context(), roleID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	type row struct {
		PageID   int64             `json:"page_id"`
		Path     string            `json:"path"`
		Name     string            `json:"name"`
		Module   string            `json:"module"`
		IsActive bool              `json:"is_active"`
		Grants   authz.GrantVector `json:"grants"`
	}
	out := make([]row, len(grants))
	for i, pg := range grants {
		out[i] = row{PageID: pg.PageID, Path: pg.PagePath, Name: pg.PageName, Module: pg.Module, IsActive: pg.IsActive, Grants: pg.Grants}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "grants": out})
}

func (h *Handler) setGrants(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	pageID, err := strconv.ParseInt(chi.URLParam(r, "pageID"), 10, 64)
	if err != nil || pageID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid page id")
		return
	}
	var grants authz.GrantVector
	if err := httpx.DecodeJSON(r, &grants); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed grant vector")
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	if err := h.service.SetGrants(r.Context(), actor.UserID, roleID, pageID, grants); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "page_id": pageID, "grants": grants})
}

func (h *Handler) replaceGrants(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req replaceGrantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	grants := make([]PageGrants, len(req.Grants))
	for i, row := range req.Grants {
		grants[i] = PageGrants{PageID: row.PageID, Grants: row.Grants}
	}
	actor, _ := authz.ActorFromContext(r.Context())
	if err := h.service.ReplaceGrants(r.Context(), actor.UserID, roleID, grants); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "pages": len(grants)})
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
	case errors.Is(err, ErrRoleConflict):
		httpx.Problem(w, http.StatusConflict, "Role Conflict", "role missing or inactive")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	default:
		h.logger.Error("matrix handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
