package handler

import (
	"net/http"
	"strings"

	"rideshare_backend/internal/adapters/storage"
	"rideshare_backend/internal/vehicles/repository"
	"rideshare_backend/internal/vehicles/service"
	"rideshare_backend/internal/vehicles/transport"
	"rideshare_backend/platform/httpkit"
	"rideshare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidVehicleID = "invalid vehicle id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterDriverRoutes mounts the routes a signed-in driver uses.
func (h *Handler) RegisterDriverRoutes(rg *gin.RouterGroup) {
	rg.POST("/vehicles", h.Submit)
	rg.GET("/vehicles", h.ListMine)
	rg.GET("/vehicles/:id", h.GetMine)
	rg.POST("/vehicles/:id/documents/presign", h.PresignDocument)
	rg.GET("/vehicles/:id/documents", h.ListMyDocuments)
}

// RegisterAdminRoutes mounts the review queue on the admin group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/vehicles", h.ListForReview)
	rg.GET("/vehicles/:id", h.GetForReview)
	rg.POST("/vehicles/:id/review", h.Review)
}

func (h *Handler) Submit(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.SubmitVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	req.RegistrationCountry = strings.ToUpper(strings.TrimSpace(req.RegistrationCountry))
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	v, err := h.svc.Submit(c.Request.Context(), id.UserID(), id.Email(), service.SubmitInput{
		Make:                req.Make,
		Model:               req.Model,
		Year:                req.Year,
		Color:               req.Color,
		PlateNumber:         req.PlateNumber,
		RegistrationCountry: req.RegistrationCountry,
		Seats:               req.Seats,
		OwnerPhone:          req.OwnerPhone,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toVehicleResponse(v))
}

func (h *Handler) ListMine(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	vehicles, err := h.svc.ListMine(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVehicleList(vehicles))
}

func (h *Handler) GetMine(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	vehicleID, ok := parseVehicleID(c)
	if !ok {
		return
	}

	v, err := h.svc.GetOwned(c.Request.Context(), id.UserID(), vehicleID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVehicleResponse(v))
}

func (h *Handler) PresignDocument(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	vehicleID, ok := parseVehicleID(c)
	if !ok {
		return
	}

	var req transport.PresignDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	out, err := h.svc.PresignDocument(c.Request.Context(), id.UserID(), vehicleID, service.DocumentUpload{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.PresignDocumentResponse{
		Document:  toDocumentResponse(out.Document, nil),
		UploadURL: out.Upload.URL,
		FileKey:   out.Upload.FileKey,
		ExpiresAt: out.Upload.ExpiresAt,
	})
}

func (h *Handler) ListMyDocuments(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	vehicleID, ok := parseVehicleID(c)
	if !ok {
		return
	}

	if _, err := h.svc.GetOwned(c.Request.Context(), id.UserID(), vehicleID); httpkit.HandleError(c, err) {
		return
	}
	docs, links, err := h.svc.DocumentLinks(c.Request.Context(), vehicleID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": toDocumentList(docs, links)})
}

func (h *Handler) ListForReview(c *gin.Context) {
	var q transport.ListVehiclesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if q.Status == "" {
		q.Status = repository.StatusPending
	}

	vehicles, err := h.svc.ListByStatus(c.Request.Context(), q.Status, q.Limit, q.Offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVehicleList(vehicles))
}

func (h *Handler) GetForReview(c *gin.Context) {
	vehicleID, ok := parseVehicleID(c)
	if !ok {
		return
	}

	v, err := h.svc.Get(c.Request.Context(), vehicleID)
	if httpkit.HandleError(c, err) {
		return
	}
	docs, links, err := h.svc.DocumentLinks(c.Request.Context(), vehicleID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.VehicleDetailResponse{
		VehicleResponse: toVehicleResponse(v),
		Documents:       toDocumentList(docs, links),
	})
}

func (h *Handler) Review(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	vehicleID, ok := parseVehicleID(c)
	if !ok {
		return
	}

	var req transport.ReviewVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	v, err := h.svc.Review(c.Request.Context(), id.UserID(), vehicleID, req.Decision, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVehicleResponse(v))
}

func parseVehicleID(c *gin.Context) (uuid.UUID, bool) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidVehicleID, nil)
		return uuid.Nil, false
	}
	return vehicleID, true
}

func toVehicleResponse(v repository.Vehicle) transport.VehicleResponse {
	return transport.VehicleResponse{
		ID:                  v.ID.String(),
		OwnerID:             v.OwnerID.String(),
		Make:                v.Make,
		Model:               v.Model,
		Year:                v.Year,
		Color:               v.Color,
		PlateNumber:         v.PlateNumber,
		RegistrationCountry: v.RegistrationCountry,
		Seats:               v.Seats,
		OwnerPhone:          v.OwnerPhone,
		Status:              v.Status,
		ReviewNote:          v.ReviewNote,
		ReviewedAt:          v.ReviewedAt,
		CreatedAt:           v.CreatedAt,
	}
}

func toVehicleList(vehicles []repository.Vehicle) transport.VehicleListResponse {
	items := make([]transport.VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		items = append(items, toVehicleResponse(v))
	}
	return transport.VehicleListResponse{Items: items}
}

func toDocumentResponse(d repository.Document, link *storage.PresignedURL) transport.DocumentResponse {
	resp := transport.DocumentResponse{
		ID:          d.ID.String(),
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		CreatedAt:   d.CreatedAt,
	}
	if link != nil {
		expires := link.ExpiresAt
		resp.DownloadURL = link.URL
		resp.ExpiresAt = &expires
	}
	return resp
}

func toDocumentList(docs []repository.Document, links map[uuid.UUID]*storage.PresignedURL) []transport.DocumentResponse {
	out := make([]transport.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d, links[d.ID]))
	}
	return out
}
