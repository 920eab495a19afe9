package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	accesscontroller "github.com/moaz267/furniture/internal/access/controller"
	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/cart"
	cartcontroller "github.com/moaz267/furniture/internal/cart/controller"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/localstore"
	"github.com/moaz267/furniture/internal/infrastructure/validation"
	"github.com/moaz267/furniture/internal/session"
)

type stubSessions struct {
	user      *domain.User
	signedOut bool
}

func (s *stubSessions) Session(ctx context.Context, token string) (*domain.User, error) {
	if s.user == nil || token != "valid" {
		return nil, apperrors.NewUnauthorizedError("session expired")
	}
	return s.user, nil
}

func (s *stubSessions) SignOut(ctx context.Context, token string) error {
	s.signedOut = true
	return nil
}

type stubRoles struct {
	role domain.Role
}

func (s stubRoles) RoleOf(ctx context.Context, userID string) (domain.Role, error) {
	return s.role, nil
}

type stubProducts struct{}

func (stubProducts) CartSnapshot(ctx context.Context, productID string) (domain.CartItem, error) {
	return domain.CartItem{}, apperrors.NewNotFoundError("product not found")
}

func newTestRouter(t *testing.T, sessions *stubSessions, role domain.Role) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	dir, err := localstore.NewDir(t.TempDir())
	require.NoError(t, err)

	return NewRouter(Handlers{
		Cart:   cartcontroller.NewCartController(cart.NewRegistry(dir, logger), stubProducts{}, validation.New(), logger),
		Access: accesscontroller.NewAccessController(nil, logger),
		Guard:  guard.New(sessions, stubRoles{role: role}, logger),
	}, logger)
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, &stubSessions{}, domain.RoleUser)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_CartIssuesShopperSession(t *testing.T) {
	router := newTestRouter(t, &stubSessions{}, domain.RoleUser)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart?lang=ar", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ar", rec.Header().Get("Content-Language"))

	var names []string
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, session.CookieName)
}

func TestRouter_AdminRequiresSignIn(t *testing.T) {
	router := newTestRouter(t, &stubSessions{}, domain.RoleUser)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/capabilities", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_AdminSignsOutPlainUsers(t *testing.T) {
	sessions := &stubSessions{user: &domain.User{ID: "u-1", Email: "shopper@example.com"}}
	router := newTestRouter(t, sessions, domain.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/capabilities", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, sessions.signedOut)
}

func TestRouter_AdminCapabilities(t *testing.T) {
	sessions := &stubSessions{user: &domain.User{ID: "u-2", Email: "staff@example.com"}}
	router := newTestRouter(t, sessions, domain.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/capabilities", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.CapabilitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "admin", body.Role)
	assert.True(t, body.CanViewOrders)
	assert.False(t, body.CanManageRoles)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/roles", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
