package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/contact/service"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
)

type mockContactService struct {
	SubmitFunc   func(ctx context.Context, req dto.ContactRequest) (*domain.ContactMessage, error)
	InboxFunc    func(ctx context.Context, limit, offset int) (*service.Inbox, error)
	MarkReadFunc func(ctx context.Context, id string) error
	DeleteFunc   func(ctx context.Context, id string) error
}

func (m *mockContactService) Submit(ctx context.Context, req dto.ContactRequest) (*domain.ContactMessage, error) {
	return m.SubmitFunc(ctx, req)
}

func (m *mockContactService) Inbox(ctx context.Context, limit, offset int) (*service.Inbox, error) {
	return m.InboxFunc(ctx, limit, offset)
}

func (m *mockContactService) MarkRead(ctx context.Context, id string) error {
	return m.MarkReadFunc(ctx, id)
}

func (m *mockContactService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func newRouter(svc ContactService, role domain.Role) http.Handler {
	ctrl := NewContactController(svc, zap.NewNop())
	principal := guard.Principal{UserID: "u1", Role: role, Capabilities: guard.For(role)}

	r := chi.NewRouter()
	r.Post("/contact", ctrl.Submit)
	r.Route("/admin", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(guard.WithPrincipal(req.Context(), principal)))
			})
		})
		ctrl.AdminRoutes(r, guard.New(nil, nil, zap.NewNop()))
	})
	return r
}

func TestSubmit_ValidationError(t *testing.T) {
	svc := &mockContactService{SubmitFunc: func(ctx context.Context, req dto.ContactRequest) (*domain.ContactMessage, error) {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{Field: "subject", Message: "subject is required"})
	}}

	rec := httptest.NewRecorder()
	newRouter(svc, domain.RoleUser).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader(`{"name":"Laila","email":"laila@example.com","message":"hi"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "subject")
}

func TestSubmit_Created(t *testing.T) {
	svc := &mockContactService{SubmitFunc: func(ctx context.Context, req dto.ContactRequest) (*domain.ContactMessage, error) {
		return &domain.ContactMessage{ID: "m1", Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message}, nil
	}}

	rec := httptest.NewRecorder()
	newRouter(svc, domain.RoleUser).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader(`{"name":"Laila","email":"laila@example.com","subject":"Hi","message":"hello"}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body dto.ContactMessageDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "m1", body.ID)
}

func TestListMessages(t *testing.T) {
	svc := &mockContactService{InboxFunc: func(ctx context.Context, limit, offset int) (*service.Inbox, error) {
		assert.Equal(t, 20, limit)
		return &service.Inbox{Messages: []domain.ContactMessage{{ID: "m1"}}, Total: 1, Unread: 1}, nil
	}}

	rec := httptest.NewRecorder()
	newRouter(svc, domain.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/messages?limit=20", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.ContactMessageListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Unread)
	require.Len(t, body.Messages, 1)
}

func TestAdminRoutes_RequireCapability(t *testing.T) {
	svc := &mockContactService{DeleteFunc: func(ctx context.Context, id string) error {
		t.Fatal("must not be reached")
		return nil
	}}

	rec := httptest.NewRecorder()
	newRouter(svc, domain.RoleUser).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/messages/m1", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMarkRead_NotFound(t *testing.T) {
	svc := &mockContactService{MarkReadFunc: func(ctx context.Context, id string) error {
		return apperrors.NewNotFoundError("message m9 not found")
	}}

	rec := httptest.NewRecorder()
	newRouter(svc, domain.RoleOwner).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/messages/m9/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
