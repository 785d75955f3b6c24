// Package handler serves a registrar's poll queue.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	poll "domainreg/internal/poll/models"
	"domainreg/internal/poll/service"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/platform/httputil"
	"domainreg/pkg/requestcontext"
)

// Queue reads and acknowledges poll messages.
type Queue interface {
	Request(ctx context.Context, clientID id.ClientID, now time.Time) (service.Head, error)
	Ack(ctx context.Context, clientID id.ClientID, msgID id.PollMessageID, now time.Time) (int, error)
}

type Handler struct {
	queue  Queue
	logger *slog.Logger
}

func New(queue Queue, logger *slog.Logger) *Handler {
	return &Handler{queue: queue, logger: logger}
}

// Register mounts poll endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/poll", h.HandleRequest)
	r.Delete("/poll/{id}", h.HandleAck)
}

// MessageResponse is one queued notification.
type MessageResponse struct {
	ID            string                 `json:"id"`
	Kind          string                 `json:"kind"`
	EventTime     time.Time              `json:"event_time"`
	Message       string                 `json:"message"`
	Domain        string                 `json:"domain"`
	Transfer      *TransferPayload       `json:"transfer,omitempty"`
	PendingAction *PendingActionResponse `json:"pending_action,omitempty"`
}

type TransferPayload struct {
	Status                 string     `json:"status"`
	GainingClientID        string     `json:"gaining_client_id"`
	LosingClientID         string     `json:"losing_client_id"`
	RequestTime            time.Time  `json:"request_time"`
	ActionTime             time.Time  `json:"action_time"`
	ExtendedExpirationTime *time.Time `json:"extended_expiration_time,omitempty"`
}

type PendingActionResponse struct {
	Domain        string    `json:"domain"`
	Result        bool      `json:"result"`
	ProcessedDate time.Time `json:"processed_date"`
}

// QueueResponse answers a poll request. Message is absent when the queue is empty.
type QueueResponse struct {
	Count   int              `json:"count"`
	Message *MessageResponse `json:"message,omitempty"`
}

func fromMessage(m poll.Message) *MessageResponse {
	resp := &MessageResponse{
		ID:        m.ID.String(),
		Kind:      string(m.Kind),
		EventTime: m.EventTime,
		Message:   m.Msg,
		Domain:    m.TargetID.String(),
	}
	if t := m.Transfer; t != nil {
		resp.Transfer = &TransferPayload{
			Status:                 t.TransferStatus,
			GainingClientID:        t.GainingClientID.String(),
			LosingClientID:         t.LosingClientID.String(),
			RequestTime:            t.TransferRequestTime,
			ActionTime:             t.PendingTransferExpirationTime,
			ExtendedExpirationTime: t.ExtendedRegistrationExpirationTime,
		}
	}
	if p := m.PendingAction; p != nil {
		resp.PendingAction = &PendingActionResponse{
			Domain:        p.Name.String(),
			Result:        p.Result,
			ProcessedDate: p.ProcessedDate,
		}
	}
	return resp
}

// HandleRequest handles GET /poll.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.client(w, ctx)
	if !ok {
		return
	}
	head, err := h.queue.Request(ctx, clientID, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read poll queue",
			"request_id", requestcontext.RequestID(ctx),
			"client_id", clientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	resp := QueueResponse{Count: head.Count}
	if head.Message != nil {
		resp.Message = fromMessage(*head.Message)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleAck handles DELETE /poll/{id}.
func (h *Handler) HandleAck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.client(w, ctx)
	if !ok {
		return
	}
	msgID, err := id.ParsePollMessageID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	remaining, err := h.queue.Ack(ctx, clientID, msgID, requestcontext.Now(ctx))
	if err != nil {
		h.logger.InfoContext(ctx, "poll ack failed",
			"request_id", requestcontext.RequestID(ctx),
			"client_id", clientID,
			"message_id", msgID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, QueueResponse{Count: remaining})
}

func (h *Handler) client(w http.ResponseWriter, ctx context.Context) (id.ClientID, bool) {
	clientID := requestcontext.ClientID(ctx)
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return clientID, true
}
