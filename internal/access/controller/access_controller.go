package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/access/repository"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
)

type RoleService interface {
	List(ctx context.Context) ([]repository.Assignment, error)
	Grant(ctx context.Context, actorID string, req dto.GrantRoleRequest) (*repository.Assignment, error)
	Revoke(ctx context.Context, actorID, grantID string) error
}

type Gate interface {
	Require(capability guard.Capability) func(http.Handler) http.Handler
}

type AccessController struct {
	roles  RoleService
	logger *zap.Logger
}

func NewAccessController(roles RoleService, logger *zap.Logger) *AccessController {
	return &AccessController{roles: roles, logger: logger}
}

func (c *AccessController) Routes(r chi.Router, gate Gate) {
	r.Get("/capabilities", c.Capabilities)
	r.With(gate.Require(guard.ManageRoles)).Get("/roles", c.ListRoles)
	r.With(gate.Require(guard.ManageRoles)).Post("/roles", c.GrantRole)
	r.With(gate.Require(guard.ManageRoles)).Delete("/roles/{id}", c.RevokeRole)
}

func (c *AccessController) Capabilities(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	p, ok := guard.FromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, traceID, apperrors.NewUnauthorizedError("sign in to continue"), logger)
		return
	}

	caps := p.Capabilities
	httpjson.Write(w, http.StatusOK, dto.CapabilitiesResponse{
		Role:              string(p.Role),
		CanViewOrders:     caps.CanViewOrders,
		CanUpdateOrders:   caps.CanUpdateOrders,
		CanDeleteOrders:   caps.CanDeleteOrders,
		CanManageProducts: caps.CanManageProducts,
		CanReadMessages:   caps.CanReadMessages,
		CanManageRoles:    caps.CanManageRoles,
	}, logger)
}

func (c *AccessController) ListRoles(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	assignments, err := c.roles.List(r.Context())
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	out := make([]dto.UserRoleDTO, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toUserRoleDTO(a))
	}
	httpjson.Write(w, http.StatusOK, out, logger)
}

func (c *AccessController) GrantRole(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)
	p, _ := guard.FromContext(r.Context())

	var req dto.GrantRoleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	a, err := c.roles.Grant(r.Context(), p.UserID, req)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusCreated, toUserRoleDTO(*a), logger)
}

func (c *AccessController) RevokeRole(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)
	p, _ := guard.FromContext(r.Context())

	if err := c.roles.Revoke(r.Context(), p.UserID, chi.URLParam(r, "id")); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toUserRoleDTO(a repository.Assignment) dto.UserRoleDTO {
	return dto.UserRoleDTO{
		ID:        a.ID,
		UserID:    a.UserID,
		Email:     a.Email,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
	}
}
