package contacts

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

// Handler exposes the contacts REST surface.
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

// MountRoutes registers contact routes. Each action family carries its own
// gate so the resolved breadth matches the operation.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageContacts, authz.ActionView))
		r.Get("/", h.list)
		r.Get("/{contactID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageContacts, authz.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageContacts, authz.ActionEdit))
		r.Put("/{contactID}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageContacts, authz.ActionDelete))
		r.Delete("/{contactID}", h.delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.PageContacts, authz.ActionExport))
		r.Get("/export", h.export)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, breadth, ok := h.actorBreadth(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	contacts, pagination, err := h.service.List(r.Context(), actor, breadth, page, perPage)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if contacts == nil {
		contacts = []Contact{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contacts": contacts, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, breadth, ok := h.actorBreadth(w, r)
	if !ok {
		return
	}
	id, ok := h.contactID(w, r)
	if !ok {
		return
	}
	contact, err := h.service.Get(r.Context(), actor, breadth, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contact)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := h.actorBreadth(w, r)
	if !ok {
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	contact, err := h.service.Create(r.Context(), actor, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contact)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, breadth, ok := h.actorBreadth(w, r)
	if !ok {
		return
	}
	id, ok := h.contactID(w, r)
	if !ok {
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	contact, err := h.service.Update(r.Context(), actor, breadth, id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contact)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, breadth, ok := h.actorBreadth(w, r)
	if !ok {
		return
	}
	id, ok := h.contactID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, breadth, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	actor, breadth, ok := h.actorBreadth(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.csv"`)
	if err := h.service.ExportCSV(r.Context(), actor, breadth, w); err != nil {
		h.logger.Error("export contacts", slog.Any("error", err))
	}
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (ContactInput, bool) {
	var input ContactInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return ContactInput{}, false
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return ContactInput{}, false
	}
	return input, true
}

func (h *Handler) actorBreadth(w http.ResponseWriter, r *http.Request) (authz.AuthContext, authz.Breadth, bool) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return authz.AuthContext{}, authz.BreadthNone, false
	}
	breadth, ok := authz.BreadthFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return authz.AuthContext{}, authz.BreadthNone, false
	}
	return actor, breadth, true
}

func (h *Handler) contactID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid contact id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, shared.ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
	default:
		h.logger.Error("contacts handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
