// Package api exposes the bot over HTTP: the LINE webhook, scheduler
// triggers, scan intake, health and metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/bot"
	"attendbot/internal/httpmiddleware"
	"attendbot/internal/lineclient"
	"attendbot/internal/model"
	"attendbot/internal/store"
)

// EventHandler consumes a verified webhook batch.
type EventHandler interface {
	HandleBatch(ctx context.Context, events []bot.Event) error
}

// Jobs are the scheduler-triggered pushes.
type Jobs interface {
	SendMorningPrompt(ctx context.Context) error
	SendDailySummary(ctx context.Context) error
}

// ScanRecorder stores scans from devices.
type ScanRecorder interface {
	RecordScan(ctx context.Context, studentID string, status model.ScanStatus, at time.Time, room string) (int64, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Handler serves the HTTP API.
type Handler struct {
	Events        EventHandler
	Jobs          Jobs
	Scans         ScanRecorder
	ChannelSecret string
	Health        map[string]HealthCheck
	// Limiter guards the /cron and /v1 groups when set.
	Limiter gin.HandlerFunc
	Logger  *zap.Logger
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "LINE bot is running") })
	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhook", h.webhook)

	var guards []gin.HandlerFunc
	if h.Limiter != nil {
		guards = append(guards, h.Limiter)
	}

	cron := r.Group("/cron", guards...)
	for _, m := range []string{http.MethodGet, http.MethodPost} {
		cron.Handle(m, "/morning", h.trigger("morning", h.Jobs.SendMorningPrompt))
		cron.Handle(m, "/summary", h.trigger("summary", h.Jobs.SendDailySummary))
	}

	v1 := r.Group("/v1", guards...)
	v1.POST("/scans", h.recordScan)
}

func (h *Handler) healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{}
	for name, check := range h.Health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
		}
	}
	body["status"] = "ok"
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

func (h *Handler) webhook(c *gin.Context) {
	events, err := lineclient.ParseRequest(h.ChannelSecret, c.Request)
	if err != nil {
		if errors.Is(err, lineclient.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed callback"})
		return
	}

	// the platform may hang up early; the batch still runs to completion
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.Events.HandleBatch(ctx, events); err != nil {
		h.Logger.Warn("webhook batch had failures",
			zap.Int("events", len(events)),
			zap.String("request_id", c.GetString(httpmiddleware.RequestIDKey)),
			zap.Error(err),
		)
	}
	// failures were answered per event; redelivery would duplicate commits
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) trigger(name string, job func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := job(c.Request.Context()); err != nil {
			h.Logger.Error("cron job failed", zap.String("job", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": name + " failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "job": name})
	}
}

type scanRequest struct {
	StudentID string     `json:"student_id" binding:"required"`
	Status    string     `json:"status"`
	ScannedAt *time.Time `json:"scanned_at"`
	Room      string     `json:"room"`
}

func (h *Handler) recordScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := uuid.Parse(req.StudentID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id must be a uuid"})
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if len(status) > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status too long"})
		return
	}
	var at time.Time
	if req.ScannedAt != nil {
		at = *req.ScannedAt
	}

	id, err := h.Scans.RecordScan(c.Request.Context(), req.StudentID, model.ScanStatus(status), at, req.Room)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"id": id})
	case errors.Is(err, attendance.ErrUnknownStudent):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown student"})
	case errors.Is(err, store.ErrStorage):
		h.Logger.Error("record scan", zap.String("student_id", req.StudentID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		h.Logger.Error("record scan", zap.String("student_id", req.StudentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
