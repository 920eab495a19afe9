package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/contact/service"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
)

type ContactService interface {
	Submit(ctx context.Context, req dto.ContactRequest) (*domain.ContactMessage, error)
	Inbox(ctx context.Context, limit, offset int) (*service.Inbox, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type Gate interface {
	Require(capability guard.Capability) func(http.Handler) http.Handler
}

type ContactController struct {
	contact ContactService
	logger  *zap.Logger
}

func NewContactController(contact ContactService, logger *zap.Logger) *ContactController {
	return &ContactController{contact: contact, logger: logger}
}

func (c *ContactController) Submit(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	var req dto.ContactRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	m, err := c.contact.Submit(r.Context(), req)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusCreated, toMessageDTO(*m), logger)
}

// AdminRoutes mounts the inbox behind the read-messages capability.
func (c *ContactController) AdminRoutes(r chi.Router, gate Gate) {
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(guard.ReadMessages))
		r.Get("/messages", c.ListMessages)
		r.Post("/messages/{id}/read", c.MarkRead)
		r.Delete("/messages/{id}", c.DeleteMessage)
	})
}

func (c *ContactController) ListMessages(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	limit, err := intParam(r, "limit")
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	inbox, err := c.contact.Inbox(r.Context(), limit, offset)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	out := dto.ContactMessageListResponse{
		Messages: make([]dto.ContactMessageDTO, 0, len(inbox.Messages)),
		Total:    inbox.Total,
		Unread:   inbox.Unread,
	}
	for _, m := range inbox.Messages {
		out.Messages = append(out.Messages, toMessageDTO(m))
	}
	httpjson.Write(w, http.StatusOK, out, logger)
}

func (c *ContactController) MarkRead(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	if err := c.contact.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ContactController) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	if err := c.contact.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be an integer",
		})
	}
	return n, nil
}

func toMessageDTO(m domain.ContactMessage) dto.ContactMessageDTO {
	return dto.ContactMessageDTO{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Message:   m.Message,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
