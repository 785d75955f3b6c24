// Package handler exposes domain commands over HTTP. The calling registrar
// comes from the request context, so routes must sit behind the registrar
// authentication middleware.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	flows "domainreg/internal/flows/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/platform/httputil"
	"domainreg/pkg/requestcontext"
)

// Service runs domain commands.
type Service interface {
	Create(ctx context.Context, actor flows.Actor, cmd flows.CreateCommand) (flows.Result, error)
	Renew(ctx context.Context, actor flows.Actor, cmd flows.RenewCommand) (flows.Result, error)
	Delete(ctx context.Context, actor flows.Actor, cmd flows.DeleteCommand) (flows.Result, error)
	Restore(ctx context.Context, actor flows.Actor, cmd flows.RestoreCommand) (flows.Result, error)
	Update(ctx context.Context, actor flows.Actor, cmd flows.UpdateCommand) (flows.Result, error)
	Info(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Info, error)
	TransferRequest(ctx context.Context, actor flows.Actor, cmd flows.TransferRequestCommand) (flows.Result, error)
	TransferApprove(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Result, error)
	TransferReject(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Result, error)
	TransferCancel(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Result, error)
	TransferQuery(ctx context.Context, actor flows.Actor, name id.DomainName) (poll.TransferResponse, error)
}

// Handler wires domain endpoints to the flows service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts domain endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/domains", h.HandleCreate)
	r.Route("/domains/{name}", func(r chi.Router) {
		r.Get("/", h.HandleInfo)
		r.Patch("/", h.HandleUpdate)
		r.Post("/renew", h.HandleRenew)
		r.Post("/delete", h.HandleDelete)
		r.Post("/restore", h.HandleRestore)
		r.Get("/transfer", h.HandleTransferQuery)
		r.Post("/transfer", h.HandleTransferRequest)
		r.Post("/transfer/approve", h.resolveTransfer("transfer_approve", Service.TransferApprove))
		r.Post("/transfer/reject", h.resolveTransfer("transfer_reject", Service.TransferReject))
		r.Post("/transfer/cancel", h.resolveTransfer("transfer_cancel", Service.TransferCancel))
	})
}

// HandleCreate handles POST /domains.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Create(ctx, actor, req.Command())
	h.respond(w, ctx, "create", req.Command().Name, http.StatusCreated, res, err)
}

// HandleInfo handles GET /domains/{name}.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, name, ok := h.target(w, r)
	if !ok {
		return
	}
	info, err := h.service.Info(ctx, actor, name)
	if err != nil {
		h.fail(ctx, "info", name, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDomain(info.Domain, info.State))
}

// HandleRenew handles POST /domains/{name}/renew.
func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, name, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RenewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Renew(ctx, actor, req.Command(name))
	h.respond(w, ctx, "renew", name, http.StatusOK, res, err)
}

// HandleDelete handles POST /domains/{name}/delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, name, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := decodeOptional[DeleteRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.Delete(ctx, actor, req.Command(name))
	h.respond(w, ctx, "delete", name, http.StatusOK, res, err)
}

// HandleRestore handles POST /domains/{name}/restore.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, name, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := decodeOptional[RestoreRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.Restore(ctx, actor, req.Command(name))
	h.respond(w, ctx, "restore", name, http.StatusOK, res, err)
}

// HandleUpdate handles PATCH /domains/{name}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, name, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Update(ctx, actor, req.Command(name))
	h.respond(w, ctx, "update", name, http.StatusOK, res, err)
}

// HandleTransferRequest handles POST /domains/{name}/transfer.
func (h *Handler) HandleTransferRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, name, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := decodeOptional[TransferRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.TransferRequest(ctx, actor, req.Command(name))
	h.respond(w, ctx, "transfer_request", name, http.StatusOK, res, err)
}

// HandleTransferQuery handles GET /domains/{name}/transfer.
func (h *Handler) HandleTransferQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, name, ok := h.target(w, r)
	if !ok {
		return
	}
	resp, err := h.service.TransferQuery(ctx, actor, name)
	if err != nil {
		h.fail(ctx, "transfer_query", name, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTransfer(resp))
}

type resolveFunc func(s Service, ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Result, error)

func (h *Handler) resolveTransfer(flow string, resolve resolveFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, name, ok := h.target(w, r)
		if !ok {
			return
		}
		res, err := resolve(h.service, ctx, actor, name)
		h.respond(w, ctx, flow, name, http.StatusOK, res, err)
	}
}

func (h *Handler) actor(w http.ResponseWriter, ctx context.Context) (flows.Actor, bool) {
	clientID := requestcontext.ClientID(ctx)
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return flows.Actor{}, false
	}
	return flows.Actor{ClientID: clientID, Superuser: requestcontext.IsSuperuser(ctx)}, true
}

// target resolves the actor and the {name} path parameter.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (flows.Actor, id.DomainName, bool) {
	actor, ok := h.actor(w, r.Context())
	if !ok {
		return flows.Actor{}, "", false
	}
	name, err := id.ParseDomainName(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return flows.Actor{}, "", false
	}
	return actor, name, true
}

// respond writes a committed command. A command that completes later is
// reported as 202 Accepted.
func (h *Handler) respond(w http.ResponseWriter, ctx context.Context, flow string, name id.DomainName, status int, res flows.Result, err error) {
	if err != nil {
		h.fail(ctx, flow, name, err)
		httputil.WriteError(w, err)
		return
	}
	if res.ActionPending {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, FromResult(res, requestcontext.Now(ctx)))
}

func (h *Handler) fail(ctx context.Context, flow string, name id.DomainName, err error) {
	h.logger.InfoContext(ctx, "domain request failed",
		"request_id", requestcontext.RequestID(ctx),
		"flow", flow,
		"domain", name,
		"error", err,
	)
}

// decodeOptional is DecodeAndPrepare for endpoints whose body may be empty.
func decodeOptional[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	if r.ContentLength == 0 {
		return new(T), true
	}
	ctx := r.Context()
	return httputil.DecodeAndPrepare[T](w, r, logger, ctx, requestcontext.RequestID(ctx))
}
