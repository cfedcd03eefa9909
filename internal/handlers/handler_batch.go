package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/dto"
	"github.com/finpost/gl_engine_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// batchHandler handles HTTP requests for posting batches.
type batchHandler struct {
	batchService portssvc.BatchSvcFacade
	publisher    portssvc.EventPublisher
}

func newBatchHandler(batchService portssvc.BatchSvcFacade, publisher portssvc.EventPublisher) *batchHandler {
	return &batchHandler{batchService: batchService, publisher: publisher}
}

func (h *batchHandler) createBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	batch, err := h.batchService.CreateBatch(c.Request.Context(), req, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to create batch", slog.String("error", err.Error()))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, dto.ToBatchResponse(batch))
}

func (h *batchHandler) getBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	batch, err := h.batchService.GetBatchByID(c.Request.Context(), batchID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to get batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchResponse(batch))
}

func (h *batchHandler) getBatchByNumber(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchNumber := c.Param("batchNumber")

	batch, err := h.batchService.GetBatchByNumber(c.Request.Context(), batchNumber)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to get batch by number", slog.String("error", err.Error()), slog.String("batch_number", batchNumber))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchResponse(batch))
}

func (h *batchHandler) listBatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListBatchesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	resp, err := h.batchService.ListBatches(c.Request.Context(), params)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to list batches", slog.String("error", err.Error()))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *batchHandler) attachEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	var req dto.AttachEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.batchService.AttachEntry(c.Request.Context(), batchID, req.JournalID, userID); err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to attach entry", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *batchHandler) detachEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")
	journalID := c.Param("journalID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.batchService.DetachEntry(c.Request.Context(), batchID, journalID, userID); err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to detach entry", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *batchHandler) submitBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	batch, err := h.batchService.SubmitForApproval(c.Request.Context(), batchID, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to submit batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchResponse(batch))
}

func (h *batchHandler) approveBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	approverID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	batch, events, err := h.batchService.ApproveBatch(c.Request.Context(), batchID, approverID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to approve batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.publisher.Publish(c.Request.Context(), events...)
	c.JSON(http.StatusOK, dto.ToBatchResponse(batch))
}

func (h *batchHandler) rejectBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	var req dto.RejectBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	approverID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	batch, err := h.batchService.RejectBatch(c.Request.Context(), batchID, approverID, req.Reason)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to reject batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchResponse(batch))
}

func (h *batchHandler) postBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	batch, events, err := h.batchService.PostBatch(c.Request.Context(), batchID, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to post batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.publisher.Publish(c.Request.Context(), events...)
	c.JSON(http.StatusOK, dto.ToBatchResponse(batch))
}

func (h *batchHandler) deleteBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.batchService.DeleteBatch(c.Request.Context(), batchID, userID); err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to delete batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *batchHandler) reverseBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	var req dto.ReverseBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversal, events, err := h.batchService.ReverseBatch(c.Request.Context(), batchID, req.Reason, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to reverse batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.publisher.Publish(c.Request.Context(), events...)
	c.JSON(http.StatusCreated, dto.ToBatchResponse(reversal))
}

// registerBatchRoutes registers posting-batch routes.
func registerBatchRoutes(group *gin.RouterGroup, batchService portssvc.BatchSvcFacade, publisher portssvc.EventPublisher) {
	h := newBatchHandler(batchService, publisher)

	batches := group.Group("/batches")
	{
		batches.POST("", h.createBatch)
		batches.GET("", h.listBatches)
		batches.GET("/:batchID", h.getBatch)
		batches.GET("/by-number/:batchNumber", h.getBatchByNumber)
		batches.DELETE("/:batchID", h.deleteBatch)
		batches.POST("/:batchID/entries", h.attachEntry)
		batches.DELETE("/:batchID/entries/:journalID", h.detachEntry)
		batches.POST("/:batchID/submit", h.submitBatch)
		batches.POST("/:batchID/approve", h.approveBatch)
		batches.POST("/:batchID/reject", h.rejectBatch)
		batches.POST("/:batchID/post", h.postBatch)
		batches.POST("/:batchID/reverse", h.reverseBatch)
	}
}
