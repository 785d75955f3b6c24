// Package handler exposes registrar administration. Routes must sit behind
// the admin token middleware.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"domainreg/internal/registrar/models"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/platform/httputil"
	"domainreg/pkg/requestcontext"
)

// Registry reads and writes registrars through the cache.
type Registry interface {
	Get(ctx context.Context, clientID id.ClientID) (*models.Registrar, error)
	Save(ctx context.Context, r *models.Registrar) error
	List(ctx context.Context) ([]*models.Registrar, error)
	Invalidate(ctx context.Context, clientID id.ClientID) error
}

type Handler struct {
	registry Registry
	logger   *slog.Logger
}

func New(registry Registry, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Register mounts the admin registrar endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/registrars", h.HandleList)
	r.Get("/admin/registrars/{clientID}", h.HandleGet)
	r.Put("/admin/registrars/{clientID}", h.HandleSave)
	r.Delete("/admin/registrars/{clientID}/cache", h.HandleInvalidate)
}

// SaveRequest is the body of PUT /admin/registrars/{clientID}.
type SaveRequest struct {
	Name              string   `json:"name"`
	State             string   `json:"state"`
	AllowedTLDs       []string `json:"allowed_tlds"`
	BlockPremiumNames bool     `json:"block_premium_names"`
}

var states = []models.State{models.StateActive, models.StateSuspended, models.StateDisabled}

func (r *SaveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	if r.State == "" {
		r.State = string(models.StateActive)
	}
	if !slices.Contains(states, models.State(r.State)) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown registrar state %q", r.State))
	}
	for i, tld := range r.AllowedTLDs {
		tld = strings.ToLower(strings.TrimSpace(tld))
		if tld == "" {
			return dErrors.New(dErrors.CodeValidation, "allowed_tlds cannot contain blanks")
		}
		r.AllowedTLDs[i] = tld
	}
	return nil
}

// HandleList handles GET /admin/registrars.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := h.registry.List(ctx)
	if err != nil {
		h.fail(ctx, "list registrars", "", err)
		httputil.WriteError(w, err)
		return
	}
	if all == nil {
		all = []*models.Registrar{}
	}
	httputil.WriteJSON(w, http.StatusOK, all)
}

// HandleGet handles GET /admin/registrars/{clientID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}
	reg, err := h.registry.Get(ctx, clientID)
	if err != nil {
		h.fail(ctx, "get registrar", clientID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

// HandleSave handles PUT /admin/registrars/{clientID}. It creates the
// registrar or replaces its settings, keeping the original creation time.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SaveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	now := requestcontext.Now(ctx)
	status := http.StatusOK
	existing, err := h.registry.Get(ctx, clientID)
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		existing = &models.Registrar{ClientID: clientID, CreatedAt: now}
		status = http.StatusCreated
	case err != nil:
		h.fail(ctx, "save registrar", clientID, err)
		httputil.WriteError(w, err)
		return
	}
	reg := &models.Registrar{
		ClientID:          clientID,
		Name:              req.Name,
		State:             models.State(req.State),
		AllowedTLDs:       req.AllowedTLDs,
		BlockPremiumNames: req.BlockPremiumNames,
		CreatedAt:         existing.CreatedAt,
		UpdatedAt:         now,
	}
	if err := h.registry.Save(ctx, reg); err != nil {
		h.fail(ctx, "save registrar", clientID, err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "registrar saved",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID,
		"state", reg.State,
	)
	httputil.WriteJSON(w, status, reg)
}

// HandleInvalidate handles DELETE /admin/registrars/{clientID}/cache.
func (h *Handler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}
	if err := h.registry.Invalidate(ctx, clientID); err != nil {
		h.fail(ctx, "invalidate registrar cache", clientID, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseClientID(w http.ResponseWriter, r *http.Request) (id.ClientID, bool) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return clientID, true
}

func (h *Handler) fail(ctx context.Context, op string, clientID id.ClientID, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID,
		"error", err,
	)
}
