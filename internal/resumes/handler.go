package resumes

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

const maxSaveBodySize = 8 << 20 // photo payload travels inline

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.save)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
	rg.DELETE("/resumes/:id", h.remove)
	rg.GET("/resumes/:id/photo", h.photo)
	rg.POST("/resumes/:id/sections/:section", h.addEntry)
	rg.DELETE("/resumes/:id/sections/:section/:entryId", h.deleteEntry)
}

func (h *Handler) save(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSaveBodySize)

	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resume, err := h.Svc.Save(c.Request.Context(), userID, req)
	if err != nil {
		h.writeSaveError(c, err)
		return
	}

	c.Set("resumeId", resume.ID)
	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	respond.JSON(c, status, toResponse(resume))
}

func (h *Handler) writeSaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrQuotaExceeded):
		respond.Error(c, http.StatusForbidden, "quota_exceeded", "Resume limit reached. Upgrade to create more resumes.", nil)
	case errors.Is(err, ErrUpgradeRequired):
		respond.Error(c, http.StatusForbidden, "upgrade_required", "Customization requires a premium plan.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save resume", nil)
	}
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list resumes", nil)
		return
	}

	resp := make([]gin.H, 0, len(items))
	for _, r := range items {
		resp = append(resp, gin.H{
			"resumeId":  r.ID,
			"title":     r.Title,
			"layout":    r.Style.Layout,
			"photoUrl":  r.Photo.URL,
			"updatedAt": r.UpdatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	resume, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeSaveError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(resume))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeSaveError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) photo(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	resume, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeSaveError(c, err)
		return
	}
	if resume.Photo.StorageKey == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "resume has no photo", nil)
		return
	}

	rc, err := h.Svc.Store.Open(c.Request.Context(), resume.Photo.StorageKey)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open photo", nil)
		return
	}
	defer rc.Close()

	contentType := resume.Photo.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) addEntry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	section, err := ParseSection(c.Param("section"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	var input EntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	entryID, err := h.Svc.AddEntry(c.Request.Context(), userID, c.Param("id"), section, input)
	if err != nil {
		h.writeSaveError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"entryId": entryID, "section": section})
}

func (h *Handler) deleteEntry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	section, err := ParseSection(c.Param("section"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	if err := h.Svc.DeleteEntry(c.Request.Context(), userID, c.Param("id"), section, c.Param("entryId")); err != nil {
		h.writeSaveError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}
