package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/dto"
	"github.com/finpost/gl_engine_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests for journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
	publisher      portssvc.EventPublisher
}

func newJournalHandler(journalService portssvc.JournalSvcFacade, publisher portssvc.EventPublisher) *journalHandler {
	return &journalHandler{journalService: journalService, publisher: publisher}
}

func (h *journalHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.CreateEntry(c.Request.Context(), req, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to create journal entry", slog.String("error", err.Error()))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), journalID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to get journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), params)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to list journal entries", slog.String("error", err.Error()))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *journalHandler) updateEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.UpdateEntry(c.Request.Context(), journalID, req, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to update journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) addLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.CreateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.AddLine(c.Request.Context(), journalID, req, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to add journal line", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) updateLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")
	lineID := c.Param("lineID")

	var req dto.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.UpdateLine(c.Request.Context(), journalID, lineID, req, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to update journal line", slog.String("error", err.Error()), slog.String("line_id", lineID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) removeLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")
	lineID := c.Param("lineID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.RemoveLine(c.Request.Context(), journalID, lineID, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to remove journal line", slog.String("error", err.Error()), slog.String("line_id", lineID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, events, err := h.journalService.PostEntry(c.Request.Context(), journalID, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to post journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.publisher.Publish(c.Request.Context(), events...)
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) rejectEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.RejectEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.RejectEntry(c.Request.Context(), journalID, req.Reason, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to reject journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversal, events, err := h.journalService.ReverseEntry(c.Request.Context(), journalID, req.ReversalDate, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to reverse journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.publisher.Publish(c.Request.Context(), events...)
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}

// registerJournalRoutes registers journal entry routes.
func registerJournalRoutes(group *gin.RouterGroup, journalService portssvc.JournalSvcFacade, publisher portssvc.EventPublisher) {
	h := newJournalHandler(journalService, publisher)

	journals := group.Group("/journals")
	{
		journals.POST("", h.createEntry)
		journals.GET("", h.listEntries)
		journals.GET("/:journalID", h.getEntry)
		journals.PUT("/:journalID", h.updateEntry)
		journals.POST("/:journalID/lines", h.addLine)
		journals.PUT("/:journalID/lines/:lineID", h.updateLine)
		journals.DELETE("/:journalID/lines/:lineID", h.removeLine)
		journals.POST("/:journalID/post", h.postEntry)
		journals.POST("/:journalID/reject", h.rejectEntry)
		journals.POST("/:journalID/reverse", h.reverseEntry)
	}
}
