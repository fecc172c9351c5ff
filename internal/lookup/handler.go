package lookup

import (
	"net/http"

	"rideshare_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the suggestion endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Suggest handles GET /api/v1/lookup/:kind?q=...&country=...&make=...
func (h *Handler) Suggest(c *gin.Context) {
	kind := Kind(c.Param("kind"))
	if !kind.Valid() {
		httpkit.Error(c, http.StatusNotFound, "unknown lookup kind", gin.H{"kinds": Kinds})
		return
	}

	var req SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lookup query", err.Error())
		return
	}

	result, err := h.svc.Suggest(c.Request.Context(), kind, req.Query, req.Scope())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Details handles GET /api/v1/lookup/:kind/details?ref=...
func (h *Handler) Details(c *gin.Context) {
	var req DetailsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'ref' is required", nil)
		return
	}

	result, err := h.svc.Details(c.Request.Context(), Kind(c.Param("kind")), req.Ref)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
