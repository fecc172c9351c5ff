package handler

import (
	"net/http"

	"rideshare_backend/internal/access/service"
	"rideshare_backend/internal/access/transport"
	"rideshare_backend/platform/httpkit"
	"rideshare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidUserID    = "invalid user id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes mounts the role management routes on the admin group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/roles", h.ListByRole)
	rg.GET("/roles/:userId", h.ListUserRoles)
	rg.POST("/roles", h.Grant)
	rg.DELETE("/roles/:userId/:role", h.Revoke)
}

// GetMyRoles handles GET /api/v1/me/roles.
func (h *Handler) GetMyRoles(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	roles, err := h.svc.ListRoles(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RolesResponse{UserID: id.UserID().String(), Roles: roles})
}

func (h *Handler) ListUserRoles(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidUserID, nil)
		return
	}

	roles, err := h.svc.ListRoles(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RolesResponse{UserID: userID.String(), Roles: roles})
}

func (h *Handler) ListByRole(c *gin.Context) {
	role := c.DefaultQuery("role", service.RoleAdmin)

	grants, err := h.svc.ListByRole(c.Request.Context(), role)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.GrantListResponse{Role: role, Grants: make([]transport.GrantResponse, 0, len(grants))}
	for _, g := range grants {
		item := transport.GrantResponse{UserID: g.UserID.String(), Role: g.Role}
		if g.GrantedBy != nil {
			by := g.GrantedBy.String()
			item.GrantedBy = &by
		}
		if !g.CreatedAt.IsZero() {
			created := g.CreatedAt
			item.CreatedAt = &created
		}
		resp.Grants = append(resp.Grants, item)
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Grant(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	userID := uuid.MustParse(req.UserID)
	if err := h.svc.Grant(c.Request.Context(), id.UserID(), userID, req.Role); httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.GrantResponse{UserID: userID.String(), Role: req.Role})
}

func (h *Handler) Revoke(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidUserID, nil)
		return
	}

	if err := h.svc.Revoke(c.Request.Context(), id.UserID(), userID, c.Param("role")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
