package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes the catalog administration surface.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PagePermissions, authz.ActionView))
		r.Get("/", h.listPages)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PagePermissions, authz.ActionEdit))
		r.Post("/scan", h.scan)
		r.Post("/{path:.+}/activate", h.activate)
		r.Post("/{path:.+}/deactivate", h.deactivate)
	})
}

type pageResponse struct {
	Path      string `json:"path"`
	Module    string `json:"module"`
	Submodule string `json:"submodule,omitempty"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list pages", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]pageResponse, len(pages))
	for i, page := range pages {
		out[i] = pageResponse{Path: page.Path, Module: page.Module, Submodule: page.Submodule, Name: page.Name, IsActive: page.IsActive}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"pages": out})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Reconcile(r.Context(), shared.AllPages())
	if err != nil {
		h.logger.Error("catalog scan", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"discovered":  report.Discovered,
		"deactivated": report.Deactivated,
		"refreshed":   report.Refreshed,
	})
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	path := chi.URLParam(r, "path")
	var err error
	if active {
		err = h.service.Activate(r.Context(), path)
	} else {
		err = h.service.Deactivate(r.Context(), path)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown page "+path)
			return
		}
		h.logger.Error("set page active", slog.String("path", path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"path": path, "is_active": active})
}
