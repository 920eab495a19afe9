package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/auth/service"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
)

type AuthService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (*domain.User, error)
	SignIn(ctx context.Context, req dto.SignInRequest) (*service.Issued, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (*domain.User, error)
	ExpiresAt(token string) (time.Time, error)
}

type AuthController struct {
	auth   AuthService
	logger *zap.Logger
}

func NewAuthController(auth AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

func (c *AuthController) Routes(r chi.Router) {
	r.Post("/sign-up", c.SignUp)
	r.Post("/sign-in", c.SignIn)
	r.Post("/sign-out", c.SignOut)
	r.Get("/session", c.Session)
}

func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	var req dto.SignUpRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	user, err := c.auth.SignUp(r.Context(), req)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusCreated, toUserDTO(user), logger)
}

func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	var req dto.SignInRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	issued, err := c.auth.SignIn(r.Context(), req)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusOK, dto.SessionResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		User:      toUserDTO(&issued.User),
	}, logger)
}

func (c *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	if err := c.auth.SignOut(r.Context(), guard.BearerToken(r)); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AuthController) Session(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)
	token := guard.BearerToken(r)

	user, err := c.auth.Session(r.Context(), token)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	expiresAt, err := c.auth.ExpiresAt(token)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusOK, dto.SessionResponse{
		ExpiresAt: expiresAt,
		User:      toUserDTO(user),
	}, logger)
}

func toUserDTO(u *domain.User) dto.UserDTO {
	return dto.UserDTO{ID: u.ID, Email: u.Email, FullName: u.FullName}
}
