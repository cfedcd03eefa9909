package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/dto"
	"github.com/finpost/gl_engine_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// periodHandler handles HTTP requests for the fiscal calendar.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
	publisher     portssvc.EventPublisher
}

func newPeriodHandler(periodService portssvc.PeriodSvcFacade, publisher portssvc.EventPublisher) *periodHandler {
	return &periodHandler{periodService: periodService, publisher: publisher}
}

func (h *periodHandler) createPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createPeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), req, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to create period", slog.String("error", err.Error()))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

func (h *periodHandler) getPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")

	period, err := h.periodService.GetPeriodByID(c.Request.Context(), periodID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to get period", slog.String("error", err.Error()), slog.String("period_id", periodID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

func (h *periodHandler) listPeriods(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListPeriodsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	resp, err := h.periodService.ListPeriods(c.Request.Context(), params)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to list periods", slog.String("error", err.Error()))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	period, events, err := h.periodService.ClosePeriod(c.Request.Context(), periodID, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to close period", slog.String("error", err.Error()), slog.String("period_id", periodID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.publisher.Publish(c.Request.Context(), events...)
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

func (h *periodHandler) reopenPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")

	var req dto.ReopenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	period, err := h.periodService.ReopenPeriod(c.Request.Context(), periodID, req.Reason, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to reopen period", slog.String("error", err.Error()), slog.String("period_id", periodID))
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// registerPeriodRoutes registers fiscal-calendar routes.
func registerPeriodRoutes(group *gin.RouterGroup, periodService portssvc.PeriodSvcFacade, publisher portssvc.EventPublisher) {
	h := newPeriodHandler(periodService, publisher)

	periods := group.Group("/periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.GET("/:periodID", h.getPeriod)
		periods.POST("/:periodID/close", h.closePeriod)
		periods.POST("/:periodID/reopen", h.reopenPeriod)
	}
}
