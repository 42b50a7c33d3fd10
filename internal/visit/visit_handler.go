package visit

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carelink/internal/shared/apperror"
	"carelink/internal/shared/response"
	visiterrors "carelink/internal/visit/errors"
	"carelink/internal/visitlog"
)

type Handler struct {
	service Service
	logs    visitlog.Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, logs visitlog.Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("visit.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("visit.handler")
	}
	return &Handler{service: service, logs: logs, logger: l}
}

func NewHandlerWithRedis(service Service, logs visitlog.Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, logs, logger...)
	h.rdb = rdb
	return h
}

// releaseIdempotency drops the in-flight lock set by the idempotency
// middleware; cacheResult stores the final response for replay.
func (h *Handler) releaseIdempotency(c *gin.Context) {
	if h.rdb == nil {
		return
	}
	if lk, ok := c.Get("idempotency_lock_key"); ok {
		if key, ok := lk.(string); ok && key != "" {
			h.rdb.Del(c.Request.Context(), key)
		}
	}
}

func (h *Handler) cacheResult(c *gin.Context, resp any) {
	if h.rdb == nil {
		return
	}
	ck, ok := c.Get("idempotency_cache_key")
	if !ok {
		return
	}
	key, ok := ck.(string)
	if !ok || key == "" {
		return
	}
	if payload, err := json.Marshal(resp); err == nil {
		_ = h.rdb.Set(c.Request.Context(), key, payload, 24*time.Hour).Err()
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("visit request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseFilter(c *gin.Context) (VisitFilter, error) {
	var f VisitFilter

	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, visiterrors.ErrInvalidDateFormat
		}
		f.Date = &d
		return f, nil
	}
	if raw := c.Query("day"); raw != "" {
		wd, ok := weekdays[strings.ToLower(raw)]
		if !ok {
			return f, visiterrors.ErrInvalidDayName
		}
		f.Day = &wd
		return f, nil
	}
	start, end := c.Query("startDate"), c.Query("endDate")
	if start != "" || end != "" {
		if start == "" || end == "" {
			return f, visiterrors.ErrInvalidDateRange
		}
		from, err := time.Parse("2006-01-02", start)
		if err != nil {
			return f, visiterrors.ErrInvalidDateFormat
		}
		to, err := time.Parse("2006-01-02", end)
		if err != nil {
			return f, visiterrors.ErrInvalidDateFormat
		}
		f.From, f.To = &from, &to
	}
	return f, nil
}

func (h *Handler) ListCarerVisits(c *gin.Context) {
	agencyID := c.GetString("agency_id")
	carerID := c.Param("userId")

	f, err := parseFilter(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.ListCarerVisits(c.Request.Context(), agencyID, carerID, f)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	agencyID := c.GetString("agency_id")

	resp, err := h.service.GetByID(c.Request.Context(), agencyID, c.Param("visitId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ClockIn(c *gin.Context) {
	agencyID := c.GetString("agency_id")
	carerID := c.GetString("user_id")
	visitID := c.Param("visitId")
	h.logger.Debug("http clock in", zap.String("visit_id", visitID), zap.String("carer_id", carerID))
	defer h.releaseIdempotency(c)

	var req ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http clock in validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.service.ClockIn(c.Request.Context(), agencyID, carerID, visitID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.cacheResult(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ClockOut(c *gin.Context) {
	agencyID := c.GetString("agency_id")
	carerID := c.GetString("user_id")
	visitID := c.Param("visitId")
	h.logger.Debug("http clock out", zap.String("visit_id", visitID), zap.String("carer_id", carerID))
	defer h.releaseIdempotency(c)

	var req ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http clock out validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.service.ClockOut(c.Request.Context(), agencyID, carerID, visitID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.cacheResult(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Assign(c *gin.Context) {
	agencyID := c.GetString("agency_id")
	actorID := c.GetString("user_id")

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http assign validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Assign(c.Request.Context(), agencyID, actorID, c.Param("visitId"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) AssignBatch(c *gin.Context) {
	agencyID := c.GetString("agency_id")
	actorID := c.GetString("user_id")

	var req AssignBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http assign batch validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.AssignBatch(c.Request.Context(), agencyID, actorID, c.Param("visitId"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetLogs(c *gin.Context) {
	agencyID := c.GetString("agency_id")

	resp, err := h.logs.ListByVisit(c.Request.Context(), agencyID, c.Param("visitId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
