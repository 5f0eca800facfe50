package handler

import (
	"context"
	"net/http"

	"bookhub/internal/microservices/http-api/dto"
	"bookhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progressService service.ProgressService
}

func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// RegisterRoutes registers the progress-related routes
func (h *ProgressHandler) RegisterRoutes(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	rg.GET("", h.ListProgress)
	rg.GET("/:book_id", h.GetProgress)
	rg.POST("", append(write, h.UpdateProgress)...)
}

func (h *ProgressHandler) UpdateProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	progress, err := h.progressService.UpdateProgress(ctx, userID, req.BookID, *req.Percentage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": dto.NewProgressResponse(progress)})
}

func (h *ProgressHandler) ListProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := h.progressService.ListProgress(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	reading, completed := service.PartitionProgress(list)
	c.JSON(http.StatusOK, dto.ProgressListResponse{
		Progress:  dto.NewProgressResponses(list),
		Reading:   dto.NewProgressResponses(reading),
		Completed: dto.NewProgressResponses(completed),
	})
}

func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var uri dto.BookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	progress, err := h.progressService.GetProgress(ctx, userID, uri.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": dto.NewProgressResponse(progress)})
}
